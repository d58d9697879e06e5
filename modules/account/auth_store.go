package account

import (
	"context"
	"errors"

	"github.com/chatkitlabs/chatd/pkg/auth"
)

// authStore adapts the Mongo store to the view the authentication flow
// consumes.
type authStore struct {
	store *Store
}

// AuthStore exposes the store as an auth.UserStore.
func (s *Store) AuthStore() auth.UserStore {
	return authStore{store: s}
}

func (a authStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, err
	}
	return &auth.Account{
		Email:         user.Email,
		Name:          user.Name,
		PasswordHash:  user.PasswordHash,
		EmailVerified: user.EmailVerified,
		Disabled:      user.Disabled,
		Issuer:        user.Issuer,
		Roles:         user.Roles,
	}, nil
}

func (a authStore) Create(ctx context.Context, account *auth.Account) error {
	err := a.store.Create(ctx, &User{
		Email:         account.Email,
		Name:          account.Name,
		PasswordHash:  account.PasswordHash,
		EmailVerified: account.EmailVerified,
		Disabled:      account.Disabled,
		Issuer:        account.Issuer,
		Roles:         account.Roles,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return auth.ErrEmailAlreadyExists
	}
	return err
}

func (a authStore) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	if err := a.store.UpdatePasswordHash(ctx, email, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return auth.ErrAccountNotFound
		}
		return err
	}
	return nil
}
