package model

import (
	"strings"

	"event-ticket-ledger/internal/domain"
)

// AccountID identifies a participant. It is supplied pre-authenticated by the caller's host.
type AccountID string

const (
	minAccountLen = 2
	maxAccountLen = 64
)

func (a AccountID) String() string { return string(a) }

// ParseAccountID validates an account id: 2..64 chars of [a-z0-9], where runs are separated
// by a single '-', '_' or '.'.
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if len(s) < minAccountLen || len(s) > maxAccountLen {
		return "", domain.ErrInvalidAccount
	}
	prevSep := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			prevSep = false
		case c == '-' || c == '_' || c == '.':
			if prevSep {
				return "", domain.ErrInvalidAccount
			}
			prevSep = true
		default:
			return "", domain.ErrInvalidAccount
		}
	}
	if prevSep {
		return "", domain.ErrInvalidAccount
	}
	return AccountID(s), nil
}
