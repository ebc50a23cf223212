package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrWalletNotFound means an account exists without a wallet. Wallets
	// are created together with accounts, so this is a data-integrity bug,
	// not a user error.
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("operation not permitted for this role")
)

// VerificationError reports every recipient profile field that did not match,
// not just the first one.
type VerificationError struct {
	Fields []string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("recipient verification failed: %s", strings.Join(e.Fields, ", "))
}
