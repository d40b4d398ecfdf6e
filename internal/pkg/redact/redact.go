// redact маскирует чувствительные значения перед записью в логи.
// Пароли, токены и подписи в лог не попадают вовсе — маскируются
// только значения, которые в журнале нужны хотя бы частично.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен:
// "foobar@example.com" -> "fo***@example.com".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string     { return "[REDACTED_TOKEN]" }
func Password() string  { return "[REDACTED_PASSWORD]" }
func Signature() string { return "[REDACTED_SIGNATURE]" }
