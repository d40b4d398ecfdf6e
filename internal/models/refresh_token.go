package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken — одноразовый refresh-токен.
//
// Token — неугадываемая строка вида "<userIDHex>.<hex случайных байт>";
// хранится и ищется по точному совпадению. Ротация атомарно удаляет запись,
// поэтому повтор уже потреблённого токена отличим только как «не найден».
type RefreshToken struct {
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	UserEmail string             `bson:"user_email"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}
