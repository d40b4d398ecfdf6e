// storage задаёт порты долговременного хранилища.
// Бизнес-логика работает только с этими интерфейсами; конкретная реализация
// (MongoDB) живёт в подпакете и маппит свои ошибки на сентинелы ниже.
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pribylovaa/go-user-api/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/email/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument — некорректные параметры обращения к хранилищу.
	ErrInvalidArgument = errors.New("invalid argument")
)

// UserStorage выполняет операции над пользователями.
// Пароль приходит уже захэшированным: хэширование — забота вызывающего слоя.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) (*models.User, error)
	// UserByID находит пользователя по ObjectID.
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// UserByLogin находит пользователя по username или email.
	UserByLogin(ctx context.Context, login string) (*models.User, error)
	// UpdateUser сохраняет изменённые поля пользователя.
	UpdateUser(ctx context.Context, user *models.User) error
	// ListUsers возвращает страницу пользователей (сортировка по created_at).
	ListUsers(ctx context.Context, limit, offset int64) ([]models.User, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// ConsumeRefreshToken атомарно читает и удаляет токен по точному
	// совпадению строки. Две конкурентные ротации одного токена не могут
	// обе выиграть: вторая получает ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// DeleteRefreshToken удаляет токен (logout/отзыв).
	DeleteRefreshToken(ctx context.Context, token string) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close(ctx context.Context) error
}
