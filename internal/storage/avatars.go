package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadInfo — информация для клиента о presigned PUT загрузке.
//   - UploadURL: конечный URL для PUT-запроса;
//   - AvatarKey: ключ (путь) будущего объекта в бакете;
//   - Expires: время жизни подписи;
//   - RequiredHeader: заголовки, которые клиент обязан передать при PUT.
type UploadInfo struct {
	UploadURL      string
	AvatarKey      string
	Expires        time.Duration
	RequiredHeader map[string]string
}

// Avatars — контракт генерации presigned URL и подтверждения факта загрузки.
type Avatars interface {
	// AvatarUploadURL генерирует presigned PUT; внутри — валидация
	// contentType и contentLength.
	AvatarUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string, contentLength int64) (*UploadInfo, error)
	// CheckAvatarUpload проверяет факт загрузки по key (наличие, тип,
	// размер) и возвращает публичный URL, если сконфигурирован PublicBaseURL.
	CheckAvatarUpload(ctx context.Context, userID primitive.ObjectID, key string) (publicURL string, err error)
}
