package opaqueid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Transform применяется к значению идентификаторного поля и возвращает
// замену. Ошибка прерывает обход целиком.
type Transform func(v any) (any, error)

// isIDKey — ключ считается идентификаторным, если он буквально "id" либо
// оканчивается на "Id" при общей длине не меньше четырёх символов
// (чтобы не переписывать короткие несвязанные ключи).
func isIDKey(k string) bool {
	return k == "id" || (len(k) >= 4 && strings.HasSuffix(k, "Id"))
}

// Rewrite рекурсивно обходит JSON-дерево (map[string]any / []any / скаляры,
// как их отдаёт encoding/json) и заменяет значения идентификаторных полей
// через fn. Обход тотален: вложенные объекты и массивы любой глубины,
// null остаётся null, неидентификаторные ключи не трогаются.
func Rewrite(v any, fn Transform) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if val == nil {
				continue
			}

			switch val.(type) {
			case map[string]any, []any:
				repl, err := Rewrite(val, fn)
				if err != nil {
					return nil, err
				}
				t[k] = repl
			default:
				if !isIDKey(k) {
					continue
				}
				repl, err := fn(val)
				if err != nil {
					return nil, err
				}
				t[k] = repl
			}
		}
		return t, nil

	case []any:
		for i, el := range t {
			repl, err := Rewrite(el, fn)
			if err != nil {
				return nil, err
			}
			t[i] = repl
		}
		return t, nil

	default:
		return v, nil
	}
}

// RewriteJSON разбирает сырой JSON (числа — как json.Number, чтобы не терять
// точность), переписывает идентификаторы и сериализует обратно.
// Пустой вход возвращается как есть.
func RewriteJSON(data []byte, fn Transform) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("opaqueid: parse json: %w", err)
	}

	tree, err := Rewrite(tree, fn)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("opaqueid: marshal json: %w", err)
	}

	return out, nil
}

// EncodeValue — исходящий transform: hex-идентификаторы (строки) кодируются
// hex-формой, целые числа — числовой. Прочие скаляры возвращаются без
// изменений: кодек не знает, что с ними делать, а ломать ответ из-за
// нестандартного поля не нужно.
func (c *Codec) EncodeValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return c.EncodeHex(t)
	case json.Number:
		n, err := strconv.ParseInt(string(t), 10, 64)
		if err != nil {
			return v, nil
		}
		return c.Encode(n)
	case float64:
		return c.Encode(int64(t))
	case int64:
		return c.Encode(t)
	case int:
		return c.Encode(int64(t))
	default:
		return v, nil
	}
}

// DecodeValue — входящий transform: непрозрачная строка декодируется в ту
// форму, в которой была закодирована (формы посолены по-разному, поэтому
// попытки не пересекаются). Всё остальное в идентификаторном поле —
// ErrDecode: клиент обязан присылать только закодированные id.
func (c *Codec) DecodeValue(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, ErrDecode
	}

	if h, err := c.DecodeHex(s); err == nil {
		return h, nil
	}

	if n, err := c.Decode(s); err == nil {
		return json.Number(strconv.FormatInt(n, 10)), nil
	}

	return nil, ErrDecode
}
