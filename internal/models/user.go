// models содержит доменные сущности сервиса.
// Эти типы используются слоями бизнес-логики, хранилища и транспорта.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role — роль учётной записи.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status — статус активации учётной записи.
// Новая учётная запись остаётся pending до подтверждения.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

// User — внутренняя доменная модель пользователя.
// Password — bcrypt-хэш; в проекции профиля и в кэш он не попадает никогда.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name,omitempty"`
	Password  string             `bson:"password"`
	Role      Role               `bson:"role"`
	Avatar    string             `bson:"avatar,omitempty"`
	Status    Status             `bson:"status"`
	Banned    bool               `bson:"banned"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// IsAdmin сообщает, имеет ли учётная запись административную роль.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile проецирует пользователя в публичное представление.
// Ровно эта проекция сериализуется в кэш и отдаётся наружу:
// ни хэша пароля, ни refresh-токенов в ней нет по построению.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		Status:    u.Status,
		Banned:    u.Banned,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Profile — публичная проекция пользователя.
// ID — hex ObjectID; наружу он уходит уже в непрозрачной форме
// (переписывается на границе API). Именно проекция служит actor'ом
// аутентифицированного запроса: гейт читает её из кэша, а не из БД.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	Status    Status    `json:"status"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin сообщает, имеет ли учётная запись административную роль.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
