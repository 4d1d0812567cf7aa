package postgres

import (
	"context"
	"testing"
	"time"

	"impacto-backend/internal/config"
	"impacto-backend/internal/database"
	"impacto-backend/internal/domain"
	"impacto-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupStorage starts a throwaway PostgreSQL container, migrates the
// schema and returns a ready storage.
func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("impacto_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	log := zap.NewNop()
	db, err := database.NewConnection(&config.Database{
		Host:            host,
		Port:            port.Int(),
		User:            "test",
		Password:        "test",
		DBName:          "impacto_test",
		SSLMode:         "disable",
		Timezone:        "UTC",
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: "1h",
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := database.Close(db, log); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	require.NoError(t, database.AutoMigrate(db, log))

	return New(db, log)
}

func TestPostgresStorage(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	user := &domain.User{
		Email:        "maria@example.com",
		PasswordHash: "hash",
		Name:         "Maria Silva",
		Plan:         domain.PlanAgency,
	}
	require.NoError(t, storage.CreateUser(ctx, user))
	require.NotEmpty(t, user.ID)

	t.Run("duplicate_email", func(t *testing.T) {
		err := storage.CreateUser(ctx, &domain.User{
			Email:        "maria@example.com",
			PasswordHash: "hash",
			Name:         "Other",
			Plan:         domain.PlanSolo,
		})
		assert.ErrorIs(t, err, repository.ErrEmailExists)
	})

	client := &domain.Client{Name: "Acme", UserID: user.ID}
	require.NoError(t, storage.CreateClient(ctx, client))

	clientID := client.ID
	link := &domain.Link{
		ShortCode:   "bio123",
		OriginalURL: "https://example.com/bio",
		LinkType:    domain.LinkTypeBio,
		Tags:        []string{"verao", "promo"},
		IsActive:    true,
		UserID:      user.ID,
		ClientID:    &clientID,
	}
	require.NoError(t, storage.CreateLink(ctx, link))

	t.Run("duplicate_short_code", func(t *testing.T) {
		err := storage.CreateLink(ctx, &domain.Link{
			ShortCode:   "bio123",
			OriginalURL: "https://example.com/other",
			LinkType:    domain.LinkTypeOther,
			IsActive:    true,
			UserID:      user.ID,
		})
		assert.ErrorIs(t, err, repository.ErrShortCodeExists)
	})

	t.Run("get_by_short_code", func(t *testing.T) {
		got, err := storage.GetLinkByShortCode(ctx, "bio123")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)

		_, err = storage.GetLinkByShortCode(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("tag_filter_uses_array_membership", func(t *testing.T) {
		tag := "verao"
		links, err := storage.ListLinks(ctx, user.ID, repository.LinkFilter{Tag: &tag})
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, link.ID, links[0].ID)

		missing := "inverno"
		links, err = storage.ListLinks(ctx, user.ID, repository.LinkFilter{Tag: &missing})
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("click_aggregation", func(t *testing.T) {
		device := "mobile"
		referrer := "https://instagram.com"
		country := "BR"
		for i := 0; i < 3; i++ {
			require.NoError(t, storage.CreateClick(ctx, &domain.Click{
				LinkID:    link.ID,
				UserID:    user.ID,
				UserAgent: "agent",
				Device:    &device,
				Referrer:  &referrer,
				Country:   &country,
			}))
		}

		filter := repository.ClickFilter{
			UserID: user.ID,
			From:   time.Now().Add(-time.Hour),
			To:     time.Now().Add(time.Hour),
		}

		total, err := storage.CountClicks(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		byLink, err := storage.CountClicksByLink(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), byLink[link.ID])

		byCountry, err := storage.CountClicksByCountry(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), byCountry["BR"])

		// A restricted filter with no link IDs matches nothing.
		empty := filter
		empty.Restrict = true
		total, err = storage.CountClicks(ctx, empty)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("delete_link_removes_clicks", func(t *testing.T) {
		require.NoError(t, storage.DeleteLink(ctx, link.ID, user.ID))

		_, err := storage.GetLinkByShortCode(ctx, "bio123")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		total, err := storage.CountClicks(ctx, repository.ClickFilter{
			UserID: user.ID,
			From:   time.Now().Add(-time.Hour),
			To:     time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
