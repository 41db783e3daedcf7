package credential

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	passwordLength   = 24
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Service manages application passwords and answers credential checks
// for the Basic authentication gate.
type Service struct {
	repo Repository
	cost int
	now  func() time.Time
}

func NewService(repo Repository, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost, now: time.Now}
}

// VerifyCredentials reports whether password matches one of the user's
// active application passwords. Any lookup error counts as a mismatch.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) bool {
	p, err := s.Authenticate(ctx, username, password)
	return err == nil && p != nil
}

// Authenticate returns the matching application password. Passwords are
// shown to users in space separated chunks, so everything but letters and
// digits is dropped before comparing.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*ApplicationPassword, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	password = normalizePassword(password)
	if password == "" {
		return nil, ErrPasswordNotFound
	}

	candidates, err := s.repo.ListActiveByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list application passwords: %w", err)
	}

	for _, p := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
			continue
		}
		if err := s.repo.MarkUsed(ctx, p.ID, s.now()); err != nil {
			log.Printf("application_password_mark_used_failed id=%d username=%s error=%q", p.ID, username, err.Error())
		}
		return p, nil
	}

	return nil, ErrPasswordNotFound
}

// Create generates a new application password for username. The plain
// secret is returned once and only its hash is stored.
func (s *Service) Create(ctx context.Context, username, name string) (*ApplicationPassword, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", ErrInvalidUsername
	}

	secret, err := generatePassword(passwordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	p := &ApplicationPassword{
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, "", fmt.Errorf("save application password: %w", err)
	}

	return p, secret, nil
}

func (s *Service) List(ctx context.Context, username string) ([]*ApplicationPassword, error) {
	return s.repo.ListByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) Revoke(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Revoke(ctx, id, s.now())
}

// Prune deletes passwords revoked more than retention ago.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteRevokedBefore(ctx, s.now().Add(-retention))
}

// ChunkPassword formats a secret the way it is shown to users: groups of
// four characters separated by spaces.
func ChunkPassword(secret string) string {
	var b strings.Builder
	for i, r := range secret {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizePassword(password string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, password)
}

func generatePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
