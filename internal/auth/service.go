package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/likering/backend/internal/models"
)

// AccountStore defines the interface for account persistence.
type AccountStore interface {
	Create(ctx context.Context, acc *models.Account) error
	FindByUsernameOrEmail(ctx context.Context, username, correo string) (*models.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// ImageStore uploads a base64 avatar payload and returns its public URL.
// RemoveAvatar deletes a previously uploaded object by that URL.
type ImageStore interface {
	UploadAvatar(ctx context.Context, base64Payload string) (string, error)
	RemoveAvatar(ctx context.Context, url string) error
}

// LoginLimiter tracks failed login attempts per identifier.
type LoginLimiter interface {
	Locked(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Clear(ctx context.Context, identifier string) error
}

// Service implements registration, login, and profile lookup. Images and
// limiter are optional: a nil image store skips avatar uploads, a nil
// limiter disables throttling.
type Service struct {
	accounts AccountStore
	images   ImageStore
	limiter  LoginLimiter
}

func NewService(accounts AccountStore, images ImageStore, limiter LoginLimiter) *Service {
	return &Service{accounts: accounts, images: images, limiter: limiter}
}

// Normalize is the single identifier policy for the whole service: usernames
// and emails are trimmed and lowercased before every store read or write, so
// stored values are always lowercase and lookups are effectively
// case-insensitive.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a new account. The uniqueness pre-check gives the
// friendly conflict path; the store's unique constraints remain the
// authoritative guard and surface as the same ErrDuplicateAccount.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Profile, error) {
	nombre := strings.TrimSpace(req.Nombre)
	username := Normalize(req.Username)
	correo := Normalize(req.Correo)
	if nombre == "" || username == "" || correo == "" || req.Contrasena == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.accounts.FindByUsernameOrEmail(ctx, username, correo)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Contrasena), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		Nombre:       nombre,
		Correo:       correo,
		Username:     username,
		PasswordHash: string(hash),
		Tipo:         "personal",
	}

	if req.ImagenBase64 != "" && s.images != nil {
		url, err := s.images.UploadAvatar(ctx, req.ImagenBase64)
		switch {
		case errors.Is(err, ErrBadImage):
			return nil, ErrBadImage
		case err != nil:
			// Upload failures must not lose the registration.
			log.Printf("avatar upload failed for %s: %v", username, err)
		default:
			acc.ImagenURL = url
		}
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		// Don't orphan the uploaded avatar when the insert is rejected,
		// e.g. by the unique constraint in the pre-check race window.
		if acc.ImagenURL != "" && s.images != nil {
			if rmErr := s.images.RemoveAvatar(ctx, acc.ImagenURL); rmErr != nil {
				log.Printf("avatar cleanup failed for %s: %v", username, rmErr)
			}
		}
		return nil, err
	}
	return acc.Profile(), nil
}

// Login verifies credentials against the stored hash. Unknown identifiers
// and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.Profile, error) {
	identifier := Normalize(req.Query)
	if identifier == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	if locked, err := s.locked(ctx, identifier); err == nil && locked {
		return nil, ErrTooManyAttempts
	}

	acc, err := s.accounts.FindByIdentifier(ctx, identifier)
	if errors.Is(err, ErrAccountNotFound) {
		s.recordFailure(ctx, identifier)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		// Count the miss against both identifiers, so alternating between
		// username and email doesn't double the guess allowance.
		s.recordFailure(ctx, acc.Username)
		if acc.Correo != acc.Username {
			s.recordFailure(ctx, acc.Correo)
		}
		return nil, ErrInvalidCredentials
	}

	s.clearFailures(ctx, acc)
	return acc.Profile(), nil
}

// Lookup finds one account by exact username.
func (s *Service) Lookup(ctx context.Context, username string) (*models.Profile, error) {
	username = Normalize(username)
	if username == "" {
		return nil, ErrMissingFields
	}
	acc, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return acc.Profile(), nil
}

// List returns every account as a sanitized profile.
func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	accs, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.Profile, 0, len(accs))
	for i := range accs {
		profiles = append(profiles, *accs[i].Profile())
	}
	return profiles, nil
}

// A broken limiter never blocks logins; it only loses throttling.
func (s *Service) locked(ctx context.Context, identifier string) (bool, error) {
	if s.limiter == nil {
		return false, nil
	}
	locked, err := s.limiter.Locked(ctx, identifier)
	if err != nil {
		log.Printf("login throttle check failed: %v", err)
		return false, err
	}
	return locked, nil
}

func (s *Service) recordFailure(ctx context.Context, identifier string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, identifier); err != nil {
		log.Printf("login throttle record failed: %v", err)
	}
}

func (s *Service) clearFailures(ctx context.Context, acc *models.Account) {
	if s.limiter == nil {
		return
	}
	for _, id := range []string{acc.Username, acc.Correo} {
		if err := s.limiter.Clear(ctx, id); err != nil {
			log.Printf("login throttle clear failed: %v", err)
		}
	}
}
