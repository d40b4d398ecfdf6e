package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-user-api/internal/models"
	"github.com/pribylovaa/go-user-api/internal/pkg/log"
	"github.com/pribylovaa/go-user-api/internal/pkg/redact"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// RegisterParams — входные данные регистрации.
// Роль клиентом не задаётся: новая учётная запись всегда "user".
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Name     string
}

// LoginParams — входные данные входа.
// Если передан RefreshToken, он имеет приоритет и пароль не проверяется.
type LoginParams struct {
	Login        string
	Password     string
	RefreshToken string
}

// RegisterUser регистрирует нового пользователя и выпускает пару токенов.
// Уникальность username/email обеспечивается индексами хранилища: отдельная
// предварительная проверка была бы гонкой.
func (s *Service) RegisterUser(ctx context.Context, in RegisterParams) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.RegisterUser"

	lg := log.From(ctx)

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	username := strings.TrimSpace(in.Username)
	if !usernameRe.MatchString(username) {
		return nil, nil, fmt.Errorf("%s: username: %w", op, ErrInvalidArgument)
	}

	if err := validatePassword(in.Password); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Username: username,
		Email:    normEmail,
		Name:     strings.TrimSpace(in.Name),
		Password: hashed,
		Role:     models.RoleUser,
		Status:   models.StatusPending,
	}

	user, err = s.storage.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}

		lg.Error("save_user_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.Hex()),
		slog.String("email", redact.Email(user.Email)),
	)

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// Login выполняет вход.
//
// Приоритет refresh-токена над паролем фиксирован: если токен передан,
// выполняется ротация и пароль не проверяется вовсе; иначе — вход по
// username-или-email и паролю. После успешного пути, в строгом порядке,
// применяются проверки состояния учётной записи: бан, затем активация.
func (s *Service) Login(ctx context.Context, in LoginParams) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	if in.RefreshToken != "" {
		pair, user, err := s.Rotate(ctx, in.RefreshToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		return user, pair, nil
	}

	if strings.TrimSpace(in.Login) == "" || in.Password == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	user, err := s.storage.UserByLogin(ctx, in.Login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("user_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.checkPassword(user.Password, in.Password) {
		lg.Warn("bad_password",
			slog.String("op", op),
			slog.String("user_id", user.ID.Hex()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := s.accountGates(user); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// Logout отзывает refresh-токен. Уже потреблённый или чужой токен
// неразличимо даёт ErrInvalidToken.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	if err := s.storage.DeleteRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// accountGates применяет проверки состояния учётной записи в фиксированном
// порядке: бан строго раньше активации, каждый со своим кодом —
// клиент должен отличать «не приходите никогда» от «подтвердите почту».
func (s *Service) accountGates(user *models.User) error {
	if user.Banned {
		return ErrBanned
	}

	if user.Status != models.StatusActive {
		return ErrInactive
	}

	return nil
}

// hashPassword хэширует пароль bcrypt'ом; имя приложения подмешивается как
// статический pepper.
func (s *Service) hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(s.cfg.App.Name+password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем (с учётом pepper).
func (s *Service) checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(s.cfg.App.Name+password)) == nil
}

// validateEmail проверяет базовый формат email и нормализует его.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) < 6 || len(pw) > 128 {
		return fmt.Errorf("%s: password: %w", op, ErrInvalidArgument)
	}

	return nil
}
