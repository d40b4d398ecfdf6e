package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/pkg/log"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

// UpdateParams — частичное обновление учётной записи.
// nil-поле означает «не трогать». Role/Status/Banned — административные
// поля; попытка их изменить без роли admin отклоняется целиком.
type UpdateParams struct {
	Name     *string
	Email    *string
	Password *string

	Role   *models.Role
	Status *models.Status
	Banned *bool
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// UserByID возвращает пользователя по идентификатору.
func (s *Service) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	const op = "service.users.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateUser применяет частичное обновление от имени actor — проекции,
// которую гейт аутентификации прочитал из кэша профилей.
//
// Правило доступа «сам или админ»: владелец меняет только собственные
// name/email/password; административные поля (role/status/banned) доступны
// только админу. Мутация всегда инвалидирует кэш профиля — следующий читатель
// репопулирует его свежим значением.
func (s *Service) UpdateUser(ctx context.Context, actor *models.Profile, targetID primitive.ObjectID, in UpdateParams) (*models.User, error) {
	const op = "service.users.UpdateUser"

	lg := log.From(ctx)

	if actor.ID != targetID.Hex() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if (in.Role != nil || in.Status != nil || in.Banned != nil) && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	user, err := s.storage.UserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}

	if in.Email != nil {
		normEmail, err := validateEmail(*in.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		user.Email = normEmail
	}

	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		hashed, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		user.Password = hashed
	}

	if in.Role != nil {
		if *in.Role != models.RoleUser && *in.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%s: role: %w", op, ErrInvalidArgument)
		}

		user.Role = *in.Role
	}

	if in.Status != nil {
		if *in.Status != models.StatusPending && *in.Status != models.StatusActive {
			return nil, fmt.Errorf("%s: status: %w", op, ErrInvalidArgument)
		}

		user.Status = *in.Status
	}

	if in.Banned != nil {
		user.Banned = *in.Banned
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}

		lg.Error("update_user_failed",
			slog.String("op", op),
			slog.String("user_id", targetID.Hex()),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, targetID.Hex()); err != nil {
		lg.Warn("profile_cache_invalidate_failed",
			slog.String("op", op),
			slog.String("user_id", targetID.Hex()),
			slog.String("err", err.Error()),
		)
	}

	return user, nil
}

// ListUsers возвращает страницу публичных проекций (admin-only).
func (s *Service) ListUsers(ctx context.Context, actor *models.Profile, limit, offset int64) ([]models.Profile, error) {
	const op = "service.users.ListUsers"

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("%s: offset: %w", op, ErrInvalidArgument)
	}

	users, err := s.storage.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profiles := make([]models.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}

	return profiles, nil
}

// AvatarPresign выдаёт presigned PUT для загрузки аватара (сам или админ).
func (s *Service) AvatarPresign(ctx context.Context, actor *models.Profile, targetID primitive.ObjectID, contentType string, contentLength int64) (*storage.UploadInfo, error) {
	const op = "service.users.AvatarPresign"

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: avatars storage is not configured: %w", op, ErrInvalidArgument)
	}

	if actor.ID != targetID.Hex() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	info, err := s.avatars.AvatarUploadURL(ctx, targetID, contentType, contentLength)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

// AvatarConfirm проверяет факт загрузки по ключу и фиксирует новый URL
// аватара в учётной записи (с инвалидацией кэша профиля).
func (s *Service) AvatarConfirm(ctx context.Context, actor *models.Profile, targetID primitive.ObjectID, key string) (*models.User, error) {
	const op = "service.users.AvatarConfirm"

	lg := log.From(ctx)

	if s.avatars == nil {
		return nil, fmt.Errorf("%s: avatars storage is not configured: %w", op, ErrInvalidArgument)
	}

	if actor.ID != targetID.Hex() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	publicURL, err := s.avatars.CheckAvatarUpload(ctx, targetID, key)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.Avatar = publicURL
	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, targetID.Hex()); err != nil {
		lg.Warn("profile_cache_invalidate_failed",
			slog.String("op", op),
			slog.String("user_id", targetID.Hex()),
			slog.String("err", err.Error()),
		)
	}

	return user, nil
}
