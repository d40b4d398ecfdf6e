package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/pkg/log"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

// Profile возвращает публичную проекцию пользователя по read-through схеме:
// сперва кэш, при промахе — БД с условной репопуляцией кэша (SET NX).
//
// Недоступность кэш-бэкенда не фатальна: и нечитаемый Get, и неудавшийся
// SetNX логируются и деградируют до прямого чтения из БД. Сам профиль при
// этом остаётся свежим — устареть может только кэшированная копия, и её
// ограничивает TTL.
func (s *Service) Profile(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	const op = "service.profile.Profile"

	lg := log.From(ctx)

	key := userID.Hex()

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		lg.Warn("profile_cache_get_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
	if ok {
		return cached, nil
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("profile_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := user.Profile()

	if err := s.cache.SetNX(ctx, key, &profile, s.cfg.Redis.ProfileTTL); err != nil {
		lg.Warn("profile_cache_set_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return &profile, nil
}
