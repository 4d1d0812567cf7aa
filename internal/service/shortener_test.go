package service

import (
	"context"
	"testing"

	"impacto-backend/internal/config"
	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"
	"impacto-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortCodeConfig() *config.ShortCode {
	return &config.ShortCode{
		Length:         6,
		MaxAttempts:    10,
		FallbackLength: 8,
	}
}

func TestShortener_Shorten(t *testing.T) {
	ctx := context.Background()

	t.Run("generates_code_of_configured_length", func(t *testing.T) {
		storage := memory.New()
		shortener := NewShortener(storage, shortCodeConfig())

		link := &domain.Link{
			OriginalURL: "https://example.com/page",
			LinkType:    domain.LinkTypeBio,
			IsActive:    true,
			UserID:      "user-1",
		}

		code, err := shortener.Shorten(ctx, link, nil)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Equal(t, code, link.ShortCode)

		stored, err := storage.GetLinkByShortCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", stored.OriginalURL)
	})

	t.Run("custom_code_is_used_verbatim", func(t *testing.T) {
		storage := memory.New()
		shortener := NewShortener(storage, shortCodeConfig())

		custom := "promo2026"
		link := &domain.Link{OriginalURL: "https://example.com", UserID: "user-1"}

		code, err := shortener.Shorten(ctx, link, &custom)
		require.NoError(t, err)
		assert.Equal(t, "promo2026", code)
	})

	t.Run("custom_code_conflict", func(t *testing.T) {
		storage := memory.New()
		shortener := NewShortener(storage, shortCodeConfig())

		custom := "taken"
		first := &domain.Link{OriginalURL: "https://example.com/a", UserID: "user-1"}
		_, err := shortener.Shorten(ctx, first, &custom)
		require.NoError(t, err)

		second := &domain.Link{OriginalURL: "https://example.com/b", UserID: "user-1"}
		_, err = shortener.Shorten(ctx, second, &custom)
		assert.ErrorIs(t, err, repository.ErrShortCodeExists)
	})

	t.Run("falls_back_to_longer_code_after_exhausting_attempts", func(t *testing.T) {
		storage := &collidingStorage{MemStorage: memory.New()}
		shortener := NewShortener(storage, shortCodeConfig())

		link := &domain.Link{OriginalURL: "https://example.com", UserID: "user-1"}
		code, err := shortener.Shorten(ctx, link, nil)
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.Equal(t, 10, storage.existenceChecks)
	})
}

// collidingStorage reports every generated code as taken, forcing the
// fallback path. The final CreateLink still goes to the real store.
type collidingStorage struct {
	*memory.MemStorage
	existenceChecks int
}

func (s *collidingStorage) ShortCodeExists(_ context.Context, _ string) (bool, error) {
	s.existenceChecks++
	return true, nil
}
