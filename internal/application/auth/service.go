package auth

import (
	"context"
	"errors"
	"strings"

	"datahub-backend/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 12

// SessionUserShape is what /whoami returns for the logged in adviser.
type SessionUserShape struct {
	AdviserID string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	TeamID    *string `json:"dit_team"`
}

// Service authenticates advisers.
type Service struct {
	DB *gorm.DB
}

// Login checks email and password, matching email case-insensitively.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Adviser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var a domain.Adviser
	err := s.DB.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Order("date_joined DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !a.IsActive {
		return nil, ErrInactive
	}
	return &a, nil
}

// SetPassword stores a bcrypt hash of password for the adviser.
func (s *Service) SetPassword(ctx context.Context, adviserID uuid.UUID, password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&domain.Adviser{}).
		Where("id = ?", adviserID).
		Update("password_hash", string(hash))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// VerifyUser validates the session user and returns the /whoami shape.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	id := str(m["adviser_id"])
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	out := &SessionUserShape{
		AdviserID: id,
		Name:      str(m["name"]),
		Email:     str(m["email"]),
		Role:      str(m["role"]),
	}
	if t := str(m["dit_team_id"]); t != "" {
		out.TeamID = &t
	}
	return out, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
