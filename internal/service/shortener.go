package service

import (
	"context"
	"fmt"

	"impacto-backend/internal/config"
	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"

	"impacto-backend/pkg/random"
)

// Shortener allocates short codes and persists new links.
type Shortener struct {
	storage repository.Storage
	config  *config.ShortCode
}

// NewShortener creates a new shortener service.
func NewShortener(storage repository.Storage, cfg *config.ShortCode) *Shortener {
	return &Shortener{
		storage: storage,
		config:  cfg,
	}
}

// Shorten assigns a short code to the link and persists it. A caller
// supplied code is availability-checked and rejected on conflict.
// Generated codes are retried up to the attempt budget; on exhaustion a
// single longer fallback code is used without a further check, leaving
// the storage uniqueness constraint as the final arbiter.
func (s *Shortener) Shorten(ctx context.Context, link *domain.Link, customCode *string) (string, error) {
	var code string

	if customCode != nil && *customCode != "" {
		code = *customCode
		exists, err := s.storage.ShortCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check custom short code: %w", err)
		}
		if exists {
			return "", repository.ErrShortCodeExists
		}
	} else {
		var err error
		code, err = s.allocate(ctx)
		if err != nil {
			return "", err
		}
	}

	link.ShortCode = code

	if err := s.storage.CreateLink(ctx, link); err != nil {
		return "", err
	}

	return code, nil
}

func (s *Shortener) allocate(ctx context.Context) (string, error) {
	for i := 0; i < s.config.MaxAttempts; i++ {
		code, err := random.NewRandomString(s.config.Length)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		exists, err := s.storage.ShortCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	// Retry budget exhausted: fall back to a longer code, unverified.
	code, err := random.NewRandomString(s.config.FallbackLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate fallback short code: %w", err)
	}

	return code, nil
}
