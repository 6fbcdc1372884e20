package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrValidation = errors.New("invalid profile")
)

// BankInfo is the transfer metadata a payer shares so debtors can pay them back.
type BankInfo struct {
	BankCode      string
	AccountNumber string
	AccountHolder string
}

// Profile represents a person who can pay for or owe expenses.
type Profile struct {
	ID          uuid.UUID
	DisplayName string
	AvatarURL   *string
	Bank        *BankInfo
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Update carries the profile fields to change. Nil fields are left untouched.
type Update struct {
	DisplayName *string
	AvatarURL   *string
	Bank        *BankInfo
}
