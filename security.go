package filebank

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Validator interface {
	IsValidEmail(email string) bool
	IsValidPhone(phone string) bool
	IsValidPassword(password string) bool
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type IDGenerator interface {
	NewAccountNumber() string
	NewTransactionID() string
}

var (
	_ Validator   = RuleValidator{}
	_ Hasher      = (*BcryptHasher)(nil)
	_ IDGenerator = (*SnowflakeIDs)(nil)
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

const minPasswordLen = 8

type RuleValidator struct{}

func (RuleValidator) IsValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// IsValidPhone accepts 10 to 15 digits with an optional leading '+'. Spaces,
// dashes, dots and parentheses are ignored.
func (RuleValidator) IsValidPhone(phone string) bool {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	return phoneRe.MatchString(stripped)
}

func (RuleValidator) IsValidPassword(password string) bool {
	if len(password) < minPasswordLen {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	bits, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(bits), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SnowflakeIDs issues snowflake account numbers and uuid-based transaction IDs.
type SnowflakeIDs struct {
	node *snowflake.Node
}

func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &SnowflakeIDs{node: n}, nil
}

func (s *SnowflakeIDs) NewAccountNumber() string {
	return s.node.Generate().String()
}

func (s *SnowflakeIDs) NewTransactionID() string {
	return "TXN-" + uuid.NewString()
}
