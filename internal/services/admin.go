package services

import (
	"context"
	"errors"

	"github.com/bbm-admin/apiserver/internal/store"
	"github.com/bbm-admin/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// AdminRepository defines persistence operations for operator accounts.
type AdminRepository interface {
	GetByID(ctx context.Context, id int) (types.Admin, error)
	GetByEmail(ctx context.Context, email string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	SetActive(ctx context.Context, email string, active bool) error
}

// AdminService encapsulates account use-cases, including credential
// verification.
type AdminService struct {
	repo AdminRepository
}

func NewAdminService(repo AdminRepository) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) GetByID(ctx context.Context, id int) (types.Admin, error) {
	return s.repo.GetByID(ctx, id)
}

// Verify checks the supplied credentials against the stored account.
// It reports valid=false uniformly for an unknown email, a wrong
// password and an inactive account; the caller cannot tell which case
// occurred. The password comparison is delegated to bcrypt.
func (s *AdminService) Verify(ctx context.Context, email, password string) (types.Admin, bool, error) {
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, false, nil
		}
		return types.Admin{}, false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return types.Admin{}, false, nil
	}
	if !admin.Active {
		return types.Admin{}, false, nil
	}
	return admin, true, nil
}

// CreateWithPassword hashes the password and stores a new account.
func (s *AdminService) CreateWithPassword(ctx context.Context, email, password string, active bool) (types.Admin, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.Admin{}, err
	}
	return s.repo.Create(ctx, types.Admin{
		Email:        email,
		PasswordHash: string(hashed),
		Active:       active,
	})
}

// SetActive toggles whether the account may authenticate.
func (s *AdminService) SetActive(ctx context.Context, email string, active bool) error {
	return s.repo.SetActive(ctx, email, active)
}
