package expiry

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidSpec = errors.New("invalid expiry spec")

type Type string

const (
	TypeForever Type = "forever"
	TypeDays    Type = "days"
	TypeDate    Type = "date"
)

// Spec describe la vigencia pedida al crear un grant o link.
// Se resuelve a un valid_until concreto una sola vez, en la creación.
type Spec struct {
	Type Type       `json:"type"`
	Days int        `json:"days,omitempty"`
	Date *time.Time `json:"date,omitempty"`
}

// Compute resuelve el spec contra now:
// - forever (o vacío) => nil, sin vencimiento
// - days => now + days
// - date => la fecha literal
func (s Spec) Compute(now time.Time) (*time.Time, error) {
	switch Type(strings.TrimSpace(string(s.Type))) {
	case TypeForever, "":
		return nil, nil
	case TypeDays:
		if s.Days <= 0 {
			return nil, ErrInvalidSpec
		}
		t := now.Add(time.Duration(s.Days) * 24 * time.Hour)
		return &t, nil
	case TypeDate:
		if s.Date == nil || s.Date.IsZero() {
			return nil, ErrInvalidSpec
		}
		t := s.Date.UTC()
		return &t, nil
	default:
		return nil, ErrInvalidSpec
	}
}

// IsExpired se evalúa en cada resolve/validate, nunca se cachea:
// los grants viven meses y el reloj avanza entre creación y uso.
func IsExpired(validUntil *time.Time, now time.Time) bool {
	return validUntil != nil && now.After(*validUntil)
}
