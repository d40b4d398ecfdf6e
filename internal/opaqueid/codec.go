// opaqueid прячет внутренние идентификаторы за обратимыми непрозрачными
// строками (hashids), чтобы наружу не утекали ни последовательность,
// ни порядок величин. Кодек детерминирован и ключуется серверным секретом:
// строка, собранная не под этим секретом, детерминированно не декодируется.
//
// Поддерживаются две формы одного пространства ключей:
//   - числовая (Encode/Decode) — для целочисленных идентификаторов;
//   - hex (EncodeHex/DecodeHex) — для идентификаторов, переносимых как hex
//     (ObjectID документной БД).
//
// Формы намеренно посолены по-разному, поэтому кросс-декодирование одной
// формы другой невозможно.
package opaqueid

import (
	"errors"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// minLength — минимальная длина непрозрачной строки.
const minLength = 32

// ErrDecode — строка не является идентификатором, закодированным этим
// кодеком: чужой ключ, обрезка или произвольный мусор. Никогда не
// возвращаем «ноль как валидный id».
var ErrDecode = errors.New("opaque id decode failed")

// Codec — пара hashids-кодеров, замкнутая на производные от секрета соли.
// После создания неизменяем и безопасен для конкурентного использования.
type Codec struct {
	num *hashids.HashID
	hex *hashids.HashID
}

// NewCodec создаёт кодек, ключованный серверным секретом.
func NewCodec(secret string) (*Codec, error) {
	build := func(salt string) (*hashids.HashID, error) {
		hd := hashids.NewData()
		hd.Salt = salt
		hd.MinLength = minLength
		return hashids.NewWithData(hd)
	}

	num, err := build(secret + ":num")
	if err != nil {
		return nil, fmt.Errorf("opaqueid: %w", err)
	}

	hex, err := build(secret + ":hex")
	if err != nil {
		return nil, fmt.Errorf("opaqueid: %w", err)
	}

	return &Codec{num: num, hex: hex}, nil
}

// Encode кодирует неотрицательное целое в непрозрачную строку.
func (c *Codec) Encode(n int64) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("opaqueid: negative id %d", n)
	}

	s, err := c.num.EncodeInt64([]int64{n})
	if err != nil {
		return "", fmt.Errorf("opaqueid: %w", err)
	}

	return s, nil
}

// Decode — обратная операция к Encode.
func (c *Codec) Decode(s string) (int64, error) {
	if s == "" {
		return 0, ErrDecode
	}

	ns, err := c.num.DecodeInt64WithError(s)
	if err != nil || len(ns) == 0 {
		return 0, ErrDecode
	}

	return ns[0], nil
}

// EncodeHex кодирует hex-строку (например, ObjectID) в непрозрачную форму.
func (c *Codec) EncodeHex(h string) (string, error) {
	if h == "" {
		return "", fmt.Errorf("opaqueid: empty hex id")
	}

	s, err := c.hex.EncodeHex(h)
	if err != nil {
		return "", fmt.Errorf("opaqueid: %w", err)
	}

	return s, nil
}

// DecodeHex — обратная операция к EncodeHex.
func (c *Codec) DecodeHex(s string) (string, error) {
	if s == "" {
		return "", ErrDecode
	}

	h, err := c.hex.DecodeHex(s)
	if err != nil || h == "" {
		return "", ErrDecode
	}

	return h, nil
}
