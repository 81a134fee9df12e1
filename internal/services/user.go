package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
)

var ErrEmailTaken = newKindError(ErrConflict, "email_taken", "email is already registered")

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// Create stores a new user. The id is generated when unset so callers can
// mirror ids issued by the identity provider.
func (s *UserService) Create(ctx context.Context, u *models.User) (*models.User, error) {
	email := normalizeEmail(u.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user := *u
	user.Email = email
	user.FirstName = strings.TrimSpace(user.FirstName)
	user.LastName = strings.TrimSpace(user.LastName)
	if err := validateText(user.Fields()); err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		err := tx.InsertUser(ctx, &user)
		if errors.Is(err, store.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	})
	if err != nil {
		return nil, classify("create user", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, classify("get user", err)
	}
	return u, nil
}
