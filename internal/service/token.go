package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/pkg/log"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

// generateAccessToken выпускает access-токен: HS256, claims {sub, iat, exp},
// exp = iat + AccessTokenTTL. Токен самоописываем и нигде не хранится.
func (s *Service) generateAccessToken(ctx context.Context, userID primitive.ObjectID, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.AccessTokenTTL)),
		Issuer:    s.cfg.Auth.Issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// VerifyAccess пересчитывает подпись access-токена и проверяет срок действия.
// Истечение — жёсткая граница: никакого leeway и «продления на месте».
func (s *Service) VerifyAccess(tokenStr string) (primitive.ObjectID, error) {
	const op = "service.token.VerifyAccess"

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.Auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Auth.Issuer),
		jwt.WithIssuedAt(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// generateRefreshToken создаёт и персистит одноразовый refresh-токен вида
// "<userIDHex>.<40 случайных байт hex>" — префикс пространственно привязывает
// токен к владельцу, случайная часть делает его неугадываемым.
func (s *Service) generateRefreshToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const (
		op          = "service.token.generateRefreshToken"
		maxAttempts = 5
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 40)
		if _, err := rand.Read(b); err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		plain := user.ID.Hex() + "." + hex.EncodeToString(b)

		token := &models.RefreshToken{
			Token:     plain,
			UserID:    user.ID,
			UserEmail: user.Email,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.Auth.RefreshTokenTTL),
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редчайшая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded", slog.String("op", op))

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// Issue выпускает новую пару access+refresh для пользователя.
func (s *Service) Issue(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.token.Issue"

	now := time.Now().UTC()

	access, err := s.generateAccessToken(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.generateRefreshToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		TokenType:    "Bearer",
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.cfg.Auth.AccessTokenTTL),
	}, nil
}

// Rotate обменивает refresh-токен на новую пару.
//
// Потребление атомарно (read-and-delete одной операцией БД), поэтому второй
// вызов с тем же токеном — в том числе конкурентный — получает «не найден»:
// двойная трата одноразового токена исключена. Просроченный токен к моменту
// обнаружения уже удалён тем же потреблением и отклоняется как истёкший.
// Токены никогда не перевыпускаются без изменений: только новая пара.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (*models.TokenPair, *models.User, error) {
	const op = "service.token.Rotate"

	lg := log.From(ctx)

	rt, err := s.storage.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found", slog.String("op", op))
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		lg.Error("refresh_consume_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if time.Now().UTC().After(rt.ExpiresAt) {
		lg.Warn("refresh_expired",
			slog.String("op", op),
			slog.String("user_id", rt.UserID.Hex()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	user, err := s.storage.UserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.accountGates(user); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}
