package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

// toMS округляет время до миллисекунд: DateTime в MongoDB хранит именно их.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// SaveUser создаёт пользователя; нарушение уникальности username/email
// маппится на storage.ErrAlreadyExists.
func (m *Mongo) SaveUser(ctx context.Context, user *models.User) (*models.User, error) {
	const op = "storage/mongo/SaveUser"

	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	now := toMS(time.Now())
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	if _, err := m.users.InsertOne(ctx, user); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ObjectID.
func (m *Mongo) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	const op = "storage/mongo/UserByID"

	if id.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var user models.User
	if err := m.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// UserByLogin находит пользователя по username либо email (email приводится
// к нижнему регистру так же, как при сохранении).
func (m *Mongo) UserByLogin(ctx context.Context, login string) (*models.User, error) {
	const op = "storage/mongo/UserByLogin"

	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: login}},
		bson.D{{Key: "email", Value: strings.ToLower(login)}},
	}}}

	var user models.User
	if err := m.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// UpdateUser замещает документ пользователя целиком и обновляет updated_at.
func (m *Mongo) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage/mongo/UpdateUser"

	if user == nil || user.ID.IsZero() {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	user.UpdatedAt = toMS(time.Now())

	res, err := m.users.ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, user)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListUsers возвращает страницу пользователей, отсортированную по created_at
// (новые первыми), затем по _id для стабильности порядка.
func (m *Mongo) ListUsers(ctx context.Context, limit, offset int64) ([]models.User, error) {
	const op = "storage/mongo/ListUsers"

	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := m.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}
