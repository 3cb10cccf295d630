package redact

import "strings"

// Email маскирует локальную часть адреса для логов.
// Строка должна содержать ровно один '@', иначе адрес редактируется целиком.
// Первые два символа локальной части считаются по рунам; домен не меняется.
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
