package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/pagesmith/pagesmith/internal/repository"
)

// TTL is the lifetime of verification and password-reset tokens.
const TTL = 24 * time.Hour

// Generate returns a fresh opaque token: 32 bytes of entropy, hex encoded.
func Generate() (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Hash returns the SHA-256 digest stored in place of the raw token.
func Hash(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// Service issues and redeems email-verification tokens. Raw tokens exist
// only in the email sent to the owner; the store holds hashes.
type Service struct {
	tokens repository.VerificationTokenRepository
	ttl    time.Duration
}

func NewService(tokens repository.VerificationTokenRepository) *Service {
	return &Service{tokens: tokens, ttl: TTL}
}

// Issue creates a token for the owner, revoking any existing one. There is
// at most one live verification token per user.
func (s *Service) Issue(ctx context.Context, ownerID string) (string, error) {
	raw, err := Generate()
	if err != nil {
		return "", err
	}
	if err := s.tokens.Replace(ctx, ownerID, Hash(raw), time.Now().Add(s.ttl)); err != nil {
		return "", err
	}
	return raw, nil
}

// Redeem claims the owner's token. The owner is part of the claim, so a
// token issued to someone else matches nothing and stays live. Expiry is
// evaluated at redemption time: domain.ErrTokenExpired and
// domain.ErrTokenNotFound are distinct so callers can word the follow-up
// differently.
func (s *Service) Redeem(ctx context.Context, ownerID, raw string) error {
	return s.tokens.Claim(ctx, ownerID, Hash(raw))
}

// RevokeAllForOwner discards the owner's live token, if any.
func (s *Service) RevokeAllForOwner(ctx context.Context, ownerID string) error {
	return s.tokens.DeleteForUser(ctx, ownerID)
}
