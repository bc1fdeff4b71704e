package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/auth"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
	"github.com/JadeHendricks/mern-devconnector/internal/repo/memory"
	"github.com/JadeHendricks/mern-devconnector/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	db       *memory.DB
	users    *memory.UsersRepo
	tokens   *auth.Manager
	auth     *service.AuthService
	profiles *service.ProfileService
	repos    *fakeRepoLister
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Now()}
	f.db = memory.NewDB()
	f.users = memory.NewUsersRepo(f.db)
	f.tokens = auth.NewManager("test-secret", time.Hour, auth.WithClock(func() time.Time { return f.now }))
	f.repos = &fakeRepoLister{}
	f.auth = service.NewAuthService(f.users, f.tokens, bcrypt.MinCost, quietLogger())
	f.profiles = service.NewProfileService(memory.NewProfilesRepo(f.db), f.users, f.repos, quietLogger())

	return f
}

func (f *fixture) register(t *testing.T, name, email string) (token, userID string) {
	t.Helper()

	token, err := f.auth.Register(context.Background(), user.RegisterRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)

	userID, err = f.auth.Authenticate(token)
	require.NoError(t, err)

	return token, userID
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, id := f.register(t, "Jade", "Jade@Example.com ")

	stored, err := f.users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.Equal(t, "jade@example.com", stored.Email)
	assert.Contains(t, stored.Avatar, "https://www.gravatar.com/avatar/")

	tok, err := f.auth.Login(ctx, user.LoginRequest{Email: "jade@example.com", Password: "secret1"})
	require.NoError(t, err)

	loginID, err := f.auth.Authenticate(tok)
	require.NoError(t, err)
	assert.Equal(t, id, loginID)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		req   user.RegisterRequest
		field string
		rule  string
	}{
		{name: "blank name", req: user.RegisterRequest{Name: "  ", Email: "a@b.com", Password: "secret1"}, field: "name", rule: "required"},
		{name: "bad email", req: user.RegisterRequest{Name: "A", Email: "nope", Password: "secret1"}, field: "email", rule: "email"},
		{name: "short password", req: user.RegisterRequest{Name: "A", Email: "a@b.com", Password: "12345"}, field: "password", rule: "min"},
		{name: "password over 72 bytes", req: user.RegisterRequest{Name: "A", Email: "a@b.com", Password: strings.Repeat("x", 80)}, field: "password", rule: "maxbytes"},
		{name: "multibyte password over 72 bytes", req: user.RegisterRequest{Name: "A", Email: "a@b.com", Password: strings.Repeat("é", 40)}, field: "password", rule: "maxbytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.req)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.rule, verr.Fields[0].Rule)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "A", "dup@example.com")

	_, err := f.auth.Register(ctx, user.RegisterRequest{Name: "B", Email: "DUP@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		taken   int
		workers = 8
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Register(context.Background(), user.RegisterRequest{Name: "A", Email: "race@example.com", Password: "secret1"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, user.ErrEmailTaken):
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, taken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "A", "a@example.com")

	_, err := f.auth.Login(ctx, user.LoginRequest{Email: "a@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, user.LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Authenticate("")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other, err := auth.NewManager("other-secret", time.Hour).GenerateAccessToken("x")
	require.NoError(t, err)
	_, err = f.auth.Authenticate(other)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, id := f.register(t, "Jade", "jade@example.com")

	u, err := f.auth.CurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jade", u.Name)

	_, err = f.auth.CurrentUser(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, user.ErrNotFound)
}
