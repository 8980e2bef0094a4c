package users

import (
	"context"
	"errors"

	"github.com/standupdoc/standupdoc/internal/models"
)

// ErrMissingSub is returned when a token carries no subject claim.
var ErrMissingSub = errors.New("users: token claims missing sub")

// Service encapsulates account-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or refreshes an account from verified token
// claims. The subject claim is the stable identity; email and display
// name are refreshed on every call since providers let users change them.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSub
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	u := &models.User{
		Sub:   sub,
		Email: email,
		Name:  name,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
