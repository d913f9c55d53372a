package model

import (
	"strings"
	"time"
)

// Member is a registered participant. Records are immutable once created.
type Member struct {
	AccountID AccountID `json:"account_id"`
	Email     string    `json:"email"`
	JoinAt    time.Time `json:"join_at"`
	IsActive  bool      `json:"is_active"`
}

func NewMember(account AccountID, email string, at time.Time) *Member {
	return &Member{
		AccountID: account,
		Email:     strings.TrimSpace(email),
		JoinAt:    at,
		IsActive:  false,
	}
}

func (m *Member) IsZero() bool { return m == nil || m.AccountID == "" }

// RegisterResult is the soft outcome of a registration; it never represents a hard failure.
type RegisterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	RegisterOK      = "registered successfully"
	RegisterAlready = "already registered"
)
