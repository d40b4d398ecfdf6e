// service содержит бизнес-логику сервиса: регистрацию/аутентификацию
// пользователей, жизненный цикл access/refresh-токенов, read-through кэш
// профилей и операции над учётными записями.
//
// Основные аспекты:
//   - экземпляр Service не хранит состояние запроса и безопасен для
//     конкурентного использования при потокобезопасных storage и cache;
//   - секреты (ключ подписи) неизменяемы после создания и в логи не попадают;
//   - ошибки возвращаются сентинелами и далее маппятся транспортом на
//     HTTP-статусы и стабильные числовые коды (см. transport/http/httperr).
package service

import (
	"errors"

	"github.com/pribylovaa/go-user-api/internal/cache"
	"github.com/pribylovaa/go-user-api/internal/config"
	"github.com/pribylovaa/go-user-api/internal/storage"
)

var (
	// ErrNotFound — пользователь/сущность не найдены.
	// Транспорт: 404. Сюда же транспорт сводит ошибки декодирования
	// входящих идентификаторов: снаружи «битый id» и «нет такой записи»
	// неразличимы намеренно.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials — пароль неверен. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — access-токен некорректен по формату/подписи либо
	// refresh-токен не найден (подделка, уже потреблён или чужой —
	// различать эти случаи снаружи нельзя). Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — жёсткая временная граница токена пройдена.
	// Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrBanned — учётная запись заблокирована. Проверяется раньше
	// ErrInactive: «не приходите никогда» важнее «подтвердите почту».
	// Транспорт: 403.
	ErrBanned = errors.New("account banned")

	// ErrInactive — учётная запись не активирована. Транспорт: 403.
	ErrInactive = errors.New("account inactive")

	// ErrForbidden — аутентифицирован, но не уполномочен. Транспорт: 403.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists — username/email уже заняты. Транспорт: 409.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument — входные данные не проходят валидацию.
	// Транспорт: 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен (крайне редкие коллизии). Транспорт: 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")
)

// Service описывает бизнес-логику сервиса.
type Service struct {
	storage storage.Storage
	cache   cache.ProfileCache
	avatars storage.Avatars // может быть nil, если S3 не сконфигурирован
	cfg     *config.Config
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, pc cache.ProfileCache, cfg *config.Config) *Service {
	return &Service{
		storage: st,
		cache:   pc,
		cfg:     cfg,
	}
}

// SetAvatars устанавливает хранилище аватаров (опционально).
func (s *Service) SetAvatars(a storage.Avatars) {
	s.avatars = a
}
