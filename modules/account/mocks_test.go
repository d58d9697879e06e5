package account_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatkitlabs/chatd/modules/account"
	"github.com/chatkitlabs/chatd/pkg/auth"
	"github.com/chatkitlabs/chatd/pkg/jwt"
	"github.com/chatkitlabs/chatd/pkg/secrets"
)

// memoryStore is an in-memory stand-in for the Mongo store, satisfying
// every handler-facing interface plus auth.UserStore through the same
// semantics the real store has.
type memoryStore struct {
	users    map[string]*account.User
	pictures map[string]*account.Picture
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[string]*account.User),
		pictures: make(map[string]*account.Picture),
	}
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) (*account.User, error) {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memoryStore) Create(_ context.Context, user *account.User) error {
	email := auth.NormalizeEmail(user.Email)
	if _, ok := m.users[email]; ok {
		return account.ErrDuplicateEmail
	}
	clone := *user
	clone.Email = email
	m.users[email] = &clone
	return nil
}

func (m *memoryStore) Update(_ context.Context, email string, patch account.Patch) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	if patch.Name == nil && patch.LastName == nil && patch.PictureURL == nil {
		return account.ErrNothingToUpdate
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.PictureURL != nil {
		user.PictureURL = *patch.PictureURL
	}
	return nil
}

func (m *memoryStore) List(_ context.Context, limit, offset int64) ([]account.User, error) {
	users := make([]account.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	if offset >= int64(len(users)) {
		return nil, nil
	}
	users = users[offset:]
	if limit > 0 && int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (m *memoryStore) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *memoryStore) Delete(_ context.Context, email string) error {
	email = auth.NormalizeEmail(email)
	if _, ok := m.users[email]; !ok {
		return account.ErrUserNotFound
	}
	delete(m.users, email)
	delete(m.pictures, email)
	return nil
}

func (m *memoryStore) SetDisabled(_ context.Context, email string, disabled bool) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	user.Disabled = disabled
	return nil
}

func (m *memoryStore) SetEmailVerified(_ context.Context, email string, verified bool) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	user.EmailVerified = verified
	return nil
}

func (m *memoryStore) SetTwoFactorEnabled(_ context.Context, email string, enabled bool) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	user.TwoFactorEnabled = enabled
	return nil
}

func (m *memoryStore) UpdatePasswordHash(_ context.Context, email, hash string) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (m *memoryStore) AddAddress(_ context.Context, email string, addr account.Address) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	user.Addresses = append(user.Addresses, addr)
	return nil
}

func (m *memoryStore) UpdateAddress(_ context.Context, email string, index int, addr account.Address) error {
	user, ok := m.users[auth.NormalizeEmail(email)]
	if !ok {
		return account.ErrUserNotFound
	}
	if index < 0 || index >= len(user.Addresses) {
		return account.ErrAddressIndex
	}
	user.Addresses[index] = addr
	return nil
}

func (m *memoryStore) SavePicture(_ context.Context, email, contentType string, data []byte) error {
	m.pictures[auth.NormalizeEmail(email)] = &account.Picture{
		Email:       auth.NormalizeEmail(email),
		ContentType: contentType,
		Data:        data,
	}
	return nil
}

func (m *memoryStore) FindPicture(_ context.Context, email string) (*account.Picture, error) {
	pic, ok := m.pictures[auth.NormalizeEmail(email)]
	if !ok {
		return nil, account.ErrPictureNotFound
	}
	return pic, nil
}

// authAdapter exposes the memory store as auth.UserStore.
type authAdapter struct{ store *memoryStore }

func (a authAdapter) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, auth.ErrAccountNotFound
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

func (a authAdapter) Create(ctx context.Context, acc *auth.Account) error {
	return a.store.Create(ctx, &account.User{
		Email:         acc.Email,
		Name:          acc.Name,
		PasswordHash:  acc.PasswordHash,
		EmailVerified: acc.EmailVerified,
		Disabled:      acc.Disabled,
		Issuer:        acc.Issuer,
		Roles:         acc.Roles,
	})
}

func (a authAdapter) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	return a.store.UpdatePasswordHash(ctx, email, hash)
}

// testFlow builds a real authentication flow over the memory store with a
// throwaway keypair.
func testFlow(t *testing.T, store *memoryStore) *auth.Service {
	t.Helper()

	dir := t.TempDir()
	privateFile := filepath.Join(dir, "private_key.pem")
	publicFile := filepath.Join(dir, "public_key.pem")

	key, err := secrets.GenerateKeyPair(1024)
	require.NoError(t, err)
	require.NoError(t, secrets.WriteKeyPair(key, privateFile, publicFile))

	vault, err := secrets.Load(secrets.Config{
		PrivateKeyFile: privateFile,
		PublicKeyFile:  publicFile,
		BcryptCost:     4,
	})
	require.NoError(t, err)

	tokens, err := jwt.New(jwt.Config{SigningKey: "test-signing-key"}, vault)
	require.NoError(t, err)

	return auth.New(authAdapter{store: store}, vault, tokens)
}
