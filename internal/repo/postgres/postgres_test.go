package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/db"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/profile"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
	"github.com/JadeHendricks/mern-devconnector/internal/repo/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPool connects to TEST_DB_DSN, applies the migrations and empties the
// tables. The tests are skipped when no database is configured.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool, "up"))

	_, err = pool.Exec(ctx, `TRUNCATE profiles, users CASCADE`)
	require.NoError(t, err)

	return pool
}

func strPtr(s string) *string { return &s }

func TestUsersRepo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)

	u, err := users.Create(ctx, user.New("Jade", "jade@example.com", "hash", "avatar"))
	require.NoError(t, err)

	got, err := users.GetByEmail(ctx, "JADE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = users.Create(ctx, user.New("Other", "jade@example.com", "hash", ""))
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	_, err = users.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = users.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestProfilesRepo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)
	profiles := postgres.NewProfilesRepo(pool, nil)

	u, err := users.Create(ctx, user.New("Jade", "p@example.com", "hash", "avatar"))
	require.NoError(t, err)

	_, err = profiles.GetByUserID(ctx, u.ID)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	p, err := profiles.Upsert(ctx, u.ID, profile.UpsertRequest{
		Status:  "Developer",
		Skills:  profile.Skills{"go", "sql"},
		Company: strPtr("Acme"),
		Twitter: strPtr("https://twitter.com/jade"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Jade", p.User.Name)
	assert.Equal(t, []string{"go", "sql"}, p.Skills)
	assert.Equal(t, "https://twitter.com/jade", p.Social.Twitter)
	assert.Empty(t, p.Experience)

	p, err = profiles.Upsert(ctx, u.ID, profile.UpsertRequest{
		Status:  "Lead",
		Skills:  profile.Skills{"go"},
		YouTube: strPtr("https://youtube.com/jade"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lead", p.Status)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, "https://twitter.com/jade", p.Social.Twitter)
	assert.Equal(t, "https://youtube.com/jade", p.Social.YouTube)

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	first := profile.Experience{ID: uuid.NewString(), Title: "one", Company: "A", From: from}
	second := profile.Experience{ID: uuid.NewString(), Title: "two", Company: "B", From: from}

	_, err = profiles.AddExperience(ctx, u.ID, first)
	require.NoError(t, err)
	p, err = profiles.AddExperience(ctx, u.ID, second)
	require.NoError(t, err)
	require.Len(t, p.Experience, 2)
	assert.Equal(t, second.ID, p.Experience[0].ID)
	assert.True(t, p.Experience[1].From.Equal(from))

	_, err = profiles.RemoveExperience(ctx, u.ID, uuid.NewString())
	assert.ErrorIs(t, err, profile.ErrEntryNotFound)

	p, err = profiles.RemoveExperience(ctx, u.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, p.Experience, 1)
	assert.Equal(t, first.ID, p.Experience[0].ID)

	edu := profile.Education{ID: uuid.NewString(), School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: from}
	p, err = profiles.AddEducation(ctx, u.ID, edu)
	require.NoError(t, err)
	require.Len(t, p.Education, 1)

	p, err = profiles.RemoveEducation(ctx, u.ID, edu.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Education)

	list, err := profiles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = profiles.AddEducation(ctx, uuid.NewString(), edu)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	_, err = profiles.RemoveEducation(ctx, uuid.NewString(), edu.ID)
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestDeleteAccount(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)
	profiles := postgres.NewProfilesRepo(pool, nil)

	u, err := users.Create(ctx, user.New("Jade", "d@example.com", "hash", ""))
	require.NoError(t, err)
	_, err = profiles.Upsert(ctx, u.ID, profile.UpsertRequest{Status: "Dev", Skills: profile.Skills{"go"}})
	require.NoError(t, err)

	require.NoError(t, users.DeleteAccount(ctx, u.ID))
	require.NoError(t, users.DeleteAccount(ctx, u.ID))

	_, err = users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = profiles.GetByUserID(ctx, u.ID)
	assert.ErrorIs(t, err, profile.ErrNotFound)

	// the owner is gone, so an upsert cannot recreate an orphan profile
	_, err = profiles.Upsert(ctx, u.ID, profile.UpsertRequest{Status: "Dev", Skills: profile.Skills{"go"}})
	assert.ErrorIs(t, err, user.ErrNotFound)
}
