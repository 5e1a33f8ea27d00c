package auth

import (
	"strings"
	"time"
)

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`

	// TimeZone is an IANA zone name; due dates arrive as absolute instants
	// but clients render them in the user's zone.
	TimeZone string `gorm:"type:text;not null;default:'UTC'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// NormalizeEmail lowercases and trims; ValidEmail is deliberately loose —
// ownership is what matters, and the only authority on that is delivery.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func ValidEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t")
}
