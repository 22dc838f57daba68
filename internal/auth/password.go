package auth

import (
	"MapHub-Backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost стандартная сложность bcrypt
	DefaultBcryptCost = 12
)

// PasswordService сервис для работы с паролями
type PasswordService struct {
	cost int
	// dummy is compared when no account matches so both paths cost one bcrypt run.
	dummy []byte
}

// NewPasswordService создает новый сервис для работы с паролями
func NewPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(DefaultBcryptCost)
}

// NewPasswordServiceWithCost создает новый сервис с заданной сложностью
func NewPasswordServiceWithCost(cost int) *PasswordService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("maphub-no-such-account"), cost)
	if err != nil {
		panic("failed to prepare dummy password hash: " + err.Error())
	}
	return &PasswordService{
		cost:  cost,
		dummy: dummy,
	}
}

// HashPassword хеширует пароль с использованием bcrypt
func (s *PasswordService) HashPassword(password string) (string, error) {
	if err := IsValidPassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// VerifyPassword проверяет соответствие пароля и хеша
func (s *PasswordService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// RejectUnknown burns one comparison against the dummy hash and always fails.
func (s *PasswordService) RejectUnknown(password string) error {
	_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
	return bcrypt.ErrMismatchedHashAndPassword
}

// IsValidPassword проверяет валидность пароля по базовым критериям
func IsValidPassword(password string) error {
	if len(password) < 6 {
		return domain.Validation("password", "password must be at least 6 characters long")
	}

	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return domain.Validation("password", "password must be no more than 72 characters long")
	}

	return nil
}
