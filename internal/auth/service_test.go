package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/likering/backend/internal/models"
)

// --- fakes ---

type fakeAccountStore struct {
	accounts []*models.Account
	nextID   int
}

func (f *fakeAccountStore) Create(_ context.Context, acc *models.Account) error {
	// Mirrors the unique constraints the real store enforces.
	for _, a := range f.accounts {
		if a.Username == acc.Username || a.Correo == acc.Correo {
			return ErrDuplicateAccount
		}
	}
	f.nextID++
	acc.ID = fmt.Sprintf("id-%d", f.nextID)
	acc.CreatedAt = time.Now()
	cp := *acc
	f.accounts = append(f.accounts, &cp)
	return nil
}

func (f *fakeAccountStore) FindByUsernameOrEmail(_ context.Context, username, correo string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Username == username || a.Correo == correo {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (f *fakeAccountStore) FindByIdentifier(_ context.Context, identifier string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Username == identifier || a.Correo == identifier {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (f *fakeAccountStore) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (f *fakeAccountStore) List(_ context.Context) ([]models.Account, error) {
	out := make([]models.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

// raceAccountStore simulates a duplicate landing between the pre-check and
// the insert: the lookup sees nothing, the unique constraint still rejects.
type raceAccountStore struct {
	fakeAccountStore
}

func (r *raceAccountStore) FindByUsernameOrEmail(context.Context, string, string) (*models.Account, error) {
	return nil, ErrAccountNotFound
}

type fakeImageStore struct {
	url     string
	err     error
	removed []string
}

func (f *fakeImageStore) UploadAvatar(context.Context, string) (string, error) {
	return f.url, f.err
}

func (f *fakeImageStore) RemoveAvatar(_ context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

type fakeLimiter struct {
	failures map[string]int
	cleared  []string
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{failures: map[string]int{}}
}

func (f *fakeLimiter) Locked(_ context.Context, id string) (bool, error) {
	return f.failures[id] >= MaxFailures, nil
}

func (f *fakeLimiter) RecordFailure(_ context.Context, id string) error {
	f.failures[id]++
	return nil
}

func (f *fakeLimiter) Clear(_ context.Context, id string) error {
	delete(f.failures, id)
	f.cleared = append(f.cleared, id)
	return nil
}

func registerReq(nombre, correo, username, contrasena string) models.RegisterRequest {
	return models.RegisterRequest{Nombre: nombre, Correo: correo, Username: username, Contrasena: contrasena}
}

// --- tests ---

func TestService_Register(t *testing.T) {
	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{name: "missing nombre", req: registerReq("", "a@x.com", "ana", "pass123"), wantErr: ErrMissingFields},
		{name: "missing correo", req: registerReq("Ana", "", "ana", "pass123"), wantErr: ErrMissingFields},
		{name: "missing username", req: registerReq("Ana", "a@x.com", "", "pass123"), wantErr: ErrMissingFields},
		{name: "missing contrasena", req: registerReq("Ana", "a@x.com", "ana", ""), wantErr: ErrMissingFields},
		{name: "valid", req: registerReq("Ana", "a@x.com", "ana", "pass123")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &fakeAccountStore{}
			svc := NewService(accounts, nil, nil)

			profile, err := svc.Register(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, profile)
				assert.Empty(t, accounts.accounts, "failed registration must not mutate the store")
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, profile.ID)
			assert.Equal(t, "ana", profile.Username)

			stored := accounts.accounts[0]
			assert.NotEqual(t, tt.req.Contrasena, stored.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.req.Contrasena)))
		})
	}
}

func TestService_Register_Duplicates(t *testing.T) {
	accounts := &fakeAccountStore{}
	svc := NewService(accounts, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("Ana", "a@x.com", "ana", "pass123"))
	require.NoError(t, err)

	// Same username, different email.
	_, err = svc.Register(ctx, registerReq("Ana2", "b@x.com", "ana", "pass123"))
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	// Same email, different username.
	_, err = svc.Register(ctx, registerReq("Ana3", "a@x.com", "otra", "pass123"))
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	assert.Len(t, accounts.accounts, 1, "conflicts must not create rows")
}

func TestService_Register_StoreRejectsDuplicate(t *testing.T) {
	// Even when the pre-check misses, the store's unique-constraint
	// rejection must surface as the same conflict error.
	accounts := &raceAccountStore{}
	svc := NewService(accounts, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("Ana", "a@x.com", "ana", "pass123"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq("Ana2", "b@x.com", "ana", "pass123"))
	assert.ErrorIs(t, err, ErrDuplicateAccount)
	assert.Len(t, accounts.accounts, 1)
}

func TestService_Register_NormalizesIdentifiers(t *testing.T) {
	accounts := &fakeAccountStore{}
	svc := NewService(accounts, nil, nil)

	profile, err := svc.Register(context.Background(), registerReq("Ana", "  Ana@X.COM ", " ANA ", "pass123"))
	require.NoError(t, err)
	assert.Equal(t, "ana", profile.Username)
	assert.Equal(t, "ana@x.com", profile.Correo)
}

func TestService_Register_HashesAreSalted(t *testing.T) {
	accounts := &fakeAccountStore{}
	svc := NewService(accounts, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("Ana", "a@x.com", "ana", "sharedpass"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerReq("Bea", "b@x.com", "bea", "sharedpass"))
	require.NoError(t, err)

	h1 := accounts.accounts[0].PasswordHash
	h2 := accounts.accounts[1].PasswordHash
	assert.NotEqual(t, h1, h2, "same password must hash to different strings")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h1), []byte("sharedpass")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h2), []byte("sharedpass")))
}

func TestService_Register_Avatar(t *testing.T) {
	t.Run("uploaded", func(t *testing.T) {
		accounts := &fakeAccountStore{}
		svc := NewService(accounts, &fakeImageStore{url: "http://cdn/likering/a.png"}, nil)

		req := registerReq("Ana", "a@x.com", "ana", "pass123")
		req.ImagenBase64 = "aGVsbG8="
		profile, err := svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "http://cdn/likering/a.png", profile.ImagenURL)
	})

	t.Run("bad payload rejects registration", func(t *testing.T) {
		accounts := &fakeAccountStore{}
		svc := NewService(accounts, &fakeImageStore{err: ErrBadImage}, nil)

		req := registerReq("Ana", "a@x.com", "ana", "pass123")
		req.ImagenBase64 = "not base64"
		_, err := svc.Register(context.Background(), req)

		assert.ErrorIs(t, err, ErrBadImage)
		assert.Empty(t, accounts.accounts)
	})

	t.Run("rejected insert removes the uploaded avatar", func(t *testing.T) {
		accounts := &raceAccountStore{}
		accounts.accounts = append(accounts.accounts, &models.Account{Username: "ana", Correo: "a@x.com"})
		images := &fakeImageStore{url: "http://cdn/likering/a.png"}
		svc := NewService(accounts, images, nil)

		req := registerReq("Ana", "b@x.com", "ana", "pass123")
		req.ImagenBase64 = "aGVsbG8="
		_, err := svc.Register(context.Background(), req)

		assert.ErrorIs(t, err, ErrDuplicateAccount)
		assert.Equal(t, []string{"http://cdn/likering/a.png"}, images.removed)
	})

	t.Run("upload failure keeps the account", func(t *testing.T) {
		accounts := &fakeAccountStore{}
		svc := NewService(accounts, &fakeImageStore{err: errors.New("minio down")}, nil)

		req := registerReq("Ana", "a@x.com", "ana", "pass123")
		req.ImagenBase64 = "aGVsbG8="
		profile, err := svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Empty(t, profile.ImagenURL)
		assert.Len(t, accounts.accounts, 1)
	})
}

func TestService_Login(t *testing.T) {
	accounts := &fakeAccountStore{}
	svc := NewService(accounts, nil, nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerReq("Ana", "a@x.com", "ana", "pass123"))
	require.NoError(t, err)

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, models.LoginRequest{Query: "", Password: "pass123"})
		assert.ErrorIs(t, err, ErrMissingFields)
		_, err = svc.Login(ctx, models.LoginRequest{Query: "ana", Password: ""})
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("by username", func(t *testing.T) {
		p, err := svc.Login(ctx, models.LoginRequest{Query: "ana", Password: "pass123"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, p.ID)
	})

	t.Run("by email", func(t *testing.T) {
		p, err := svc.Login(ctx, models.LoginRequest{Query: "a@x.com", Password: "pass123"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, p.ID)
	})

	t.Run("identifier is case-insensitive", func(t *testing.T) {
		p, err := svc.Login(ctx, models.LoginRequest{Query: "  ANA ", Password: "pass123"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, p.ID)
	})

	t.Run("wrong password and unknown identifier are indistinguishable", func(t *testing.T) {
		_, wrongPw := svc.Login(ctx, models.LoginRequest{Query: "ana", Password: "wrong"})
		_, unknown := svc.Login(ctx, models.LoginRequest{Query: "nadie", Password: "pass123"})
		assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, ErrInvalidCredentials)
		assert.Equal(t, wrongPw.Error(), unknown.Error())
	})
}

func TestService_Login_Throttle(t *testing.T) {
	accounts := &fakeAccountStore{}
	limiter := newFakeLimiter()
	svc := NewService(accounts, nil, limiter)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("Ana", "a@x.com", "ana", "pass123"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerReq("Bea", "b@x.com", "bea", "pass123"))
	require.NoError(t, err)

	for i := 0; i < MaxFailures; i++ {
		_, err := svc.Login(ctx, models.LoginRequest{Query: "ana", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Locked out now, even with the right password.
	_, err = svc.Login(ctx, models.LoginRequest{Query: "ana", Password: "pass123"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Misses count against both of the account's identifiers, so switching
	// to the email doesn't reset the allowance.
	_, err = svc.Login(ctx, models.LoginRequest{Query: "a@x.com", Password: "pass123"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Other accounts are unaffected, and success clears both counters.
	p, err := svc.Login(ctx, models.LoginRequest{Query: "bea", Password: "pass123"})
	require.NoError(t, err)
	assert.Equal(t, "bea", p.Username)
	assert.Contains(t, limiter.cleared, "bea")
	assert.Contains(t, limiter.cleared, "b@x.com")
}

func TestService_LookupAndList(t *testing.T) {
	accounts := &fakeAccountStore{}
	svc := NewService(accounts, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("Ana", "a@x.com", "ana", "pass123"))
	require.NoError(t, err)

	p, err := svc.Lookup(ctx, "ANA")
	require.NoError(t, err)
	assert.Equal(t, "ana", p.Username)

	_, err = svc.Lookup(ctx, "nadie")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	profiles, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}
