package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'./\-]{1,50}$`)
	reUser  = regexp.MustCompile(`^[\p{L}\p{N} ._\-]{2,40}$`)
)

// Email trims and normalises case; the store compares addresses case-insensitively.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 120 {
		return "", false
	}
	return strings.ToLower(s), reEmail.MatchString(s)
}

// Q validates a search term of at most 50 runes. An empty term is valid and means "everything".
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reQ.MatchString(s)
}

// ID parses a positive integer resource id.
func ID(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Page parses a page or page-size query value; zero means "use the default".
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	if n > 1000 {
		return 1000
	}
	return n
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUser.MatchString(s)
}

// MaxNameLen bounds category, instrument and specification names.
const MaxNameLen = 80

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > MaxNameLen {
		return "", false
	}
	return s, true
}

// Password enforces the length window accepted at registration and login.
func Password(s string) bool {
	l := len(s)
	return l >= 6 && l <= 72
}
