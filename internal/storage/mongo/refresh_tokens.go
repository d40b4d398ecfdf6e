package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

// SaveRefreshToken сохраняет новый refresh-токен.
func (m *Mongo) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage/mongo/SaveRefreshToken"

	if token == nil || token.Token == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	token.CreatedAt = toMS(token.CreatedAt)
	token.ExpiresAt = toMS(token.ExpiresAt)

	if _, err := m.refreshTokens.InsertOne(ctx, token); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeRefreshToken атомарно читает и удаляет токен одной командой
// (FindOneAndDelete). Гонка двух ротаций одного токена разрешается на
// стороне БД: ровно одна из них получает документ, вторая — ErrNotFound.
func (m *Mongo) ConsumeRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const op = "storage/mongo/ConsumeRefreshToken"

	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var rt models.RefreshToken
	err := m.refreshTokens.FindOneAndDelete(ctx, bson.D{{Key: "token", Value: token}}).Decode(&rt)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rt, nil
}

// DeleteRefreshToken удаляет токен по точному совпадению (logout).
// Отсутствие записи — ErrNotFound: уже потреблённый токен отзывать нечем.
func (m *Mongo) DeleteRefreshToken(ctx context.Context, token string) error {
	const op = "storage/mongo/DeleteRefreshToken"

	if token == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.refreshTokens.DeleteOne(ctx, bson.D{{Key: "token", Value: token}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
