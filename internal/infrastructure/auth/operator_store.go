package auth

import (
	"errors"

	"github.com/pos/backend/internal/infrastructure/config"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown operators and wrong passwords
// alike, so responses never reveal which half failed.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Operator is an authenticated till login
type Operator struct {
	Username string
	Role     string
}

// OperatorStore verifies operator credentials against the statically
// configured accounts. There is no user database; tills are provisioned
// through configuration.
type OperatorStore struct {
	operators map[string]config.Operator
}

// NewOperatorStore creates an OperatorStore from configuration
func NewOperatorStore(cfg config.AuthConfig) *OperatorStore {
	operators := make(map[string]config.Operator, len(cfg.Operators))
	for _, op := range cfg.Operators {
		operators[op.Username] = op
	}
	return &OperatorStore{operators: operators}
}

// Authenticate verifies the username/password pair
func (s *OperatorStore) Authenticate(username, password string) (*Operator, error) {
	op, ok := s.operators[username]
	if !ok {
		// Burn a comparison anyway to keep timing uniform
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0xXIoX5EaUHvxkPYAWwaUmPrrnS"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Operator{Username: op.Username, Role: op.Role}, nil
}
