package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/входе/ротации.
//
//   - AccessToken — короткоживущий JWT; никогда не хранится, только
//     верифицируется пересчётом подписи;
//   - RefreshToken — одноразовый случайный секрет, персистится на сервере;
//   - ExpiresAt — абсолютный момент истечения access-токена (UTC).
type TokenPair struct {
	TokenType    string    `json:"tokenType"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresIn"`
}
