// crypto реализует конверт-шифр для signature-рукопожатия.
//
// Конверт двухслойный: полезная нагрузка шифруется AES-256-GCM (внутренний
// слой), поверх внутреннего шифртекста считается HMAC-SHA512-тег, затем пара
// {tag, payload} сериализуется в JSON и шифруется тем же ключом ещё раз
// (внешний слой). Тег считается именно по шифртексту, а не по открытому
// тексту, чтобы длины тега/текста не говорили ничего о содержимом.
//
// Обладание общим секретом — единственный способ собрать конверт, который
// сервер примет: это аутентифицирует клиентскую сборку, а не пользователя.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// nonceSize — размер nonce для AES-GCM (12 байт, стандартный).
const nonceSize = 12

var (
	// ErrFormat — конверт не разбирается как ожидаемая двухслойная структура
	// (битый base64, не-JSON, отсутствующие поля). Клиентский баг или мусор.
	ErrFormat = errors.New("malformed envelope")

	// ErrIntegrity — тег не совпал с пересчитанным или слой не прошёл
	// аутентификацию. Вмешательство либо чужой общий секрет.
	ErrIntegrity = errors.New("envelope integrity check failed")
)

// pack — внутренняя структура конверта между слоями шифрования.
type pack struct {
	Tag     string `json:"tag"`
	Payload string `json:"payload"`
}

// Envelope — шифр, замкнутый на неизменяемый ключ.
// Значение безопасно разделять между горутинами: ключ после создания
// не модифицируется.
type Envelope struct {
	key []byte
}

// NewEnvelope выводит 32-байтовый ключ из секрета (SHA-256) и возвращает
// готовый к работе шифр.
func NewEnvelope(secret string) Envelope {
	k := sha256.Sum256([]byte(secret))
	return Envelope{key: k[:]}
}

// Seal упаковывает plaintext в двухслойный конверт.
func (e Envelope) Seal(plaintext string) (string, error) {
	inner, err := e.encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}

	p := pack{
		Tag:     e.tag(inner),
		Payload: inner,
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	return e.encrypt(raw)
}

// Open разворачивает оба слоя, пересчитывает тег по внутреннему шифртексту
// и сверяет его за константное время. При несовпадении отказывает целиком —
// частично доверенные данные наружу не возвращаются.
func (e Envelope) Open(envelope string) (string, error) {
	raw, err := e.decrypt(envelope)
	if err != nil {
		return "", err
	}

	var p pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", ErrFormat
	}
	if p.Tag == "" || p.Payload == "" {
		return "", ErrFormat
	}

	if !hmac.Equal([]byte(p.Tag), []byte(e.tag(p.Payload))) {
		return "", ErrIntegrity
	}

	plaintext, err := e.decrypt(p.Payload)
	if err != nil {
		// Тег сошёлся, а слой не открылся — значит подменён сам payload.
		return "", ErrIntegrity
	}

	return string(plaintext), nil
}

// tag — HMAC-SHA512 по строковому (base64) представлению шифртекста.
func (e Envelope) tag(ciphertext string) string {
	mac := hmac.New(sha512.New, e.key)
	mac.Write([]byte(ciphertext))
	return hex.EncodeToString(mac.Sum(nil))
}

// encrypt шифрует данные AES-256-GCM; результат: base64(nonce + ciphertext).
func (e Envelope) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)

	return base64.RawURLEncoding.EncodeToString(out), nil
}

// decrypt — обратная операция к encrypt.
// Нечитаемый base64 и слишком короткие данные — ErrFormat;
// провал аутентификации GCM — ErrIntegrity.
func (e Envelope) decrypt(encoded string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrFormat
	}
	if len(raw) <= nonceSize {
		return nil, ErrFormat
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	return plaintext, nil
}
