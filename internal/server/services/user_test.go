package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/dmitrijs2005/authrelay/internal/logging"
	"github.com/dmitrijs2005/authrelay/internal/server/auth"
	"github.com/dmitrijs2005/authrelay/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memRepo is an in-memory users.Repository. It does not enforce uniqueness
// itself, so tests observe the service's own lock.
type memRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	creates atomic.Int32

	findErr   error
	createErr error

	// createDelay widens the window between check and create.
	createDelay time.Duration
}

func newMemRepo() *memRepo {
	return &memRepo{byEmail: map[string]*models.User{}}
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, user *models.User) error {
	if r.createDelay > 0 {
		time.Sleep(r.createDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.creates.Add(1)
	cp := *user
	r.byEmail[user.Email] = &cp
	return nil
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testSecret = []byte("test-secret")

func newUserService(repo *memRepo) *UserService {
	return NewUserService(repo, auth.NewBcryptHasher(bcrypt.MinCost),
		auth.NewTokenService(testSecret, 24*time.Hour), discardLogger())
}

func TestSignup_StoresHashedRecord(t *testing.T) {
	repo := newMemRepo()
	s := newUserService(repo)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Signup(context.Background(), "Alice", "alice@example.com", "s3cret"))

	require.Len(t, repo.byEmail, 1)
	u := repo.byEmail["alice@example.com"]
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, fixed, u.CreatedAt)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NotContains(t, u.PasswordHash, "s3cret")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
}

func TestSignup_MissingFields(t *testing.T) {
	tests := []struct {
		name, user, email, password string
	}{
		{"no name", "", "a@example.com", "pw"},
		{"no email", "A", "", "pw"},
		{"no password", "A", "a@example.com", ""},
		{"nothing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			err := newUserService(repo).Signup(context.Background(), tt.user, tt.email, tt.password)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Empty(t, repo.byEmail)
		})
	}
}

func TestSignup_Duplicate(t *testing.T) {
	repo := newMemRepo()
	s := newUserService(repo)
	ctx := context.Background()

	require.NoError(t, s.Signup(ctx, "A", "a@example.com", "pw1"))
	err := s.Signup(ctx, "B", "a@example.com", "pw2")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	assert.EqualValues(t, 1, repo.creates.Load())
	assert.Equal(t, "A", repo.byEmail["a@example.com"].Name)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	repo := newMemRepo()
	err := newUserService(repo).Signup(context.Background(), "A", "a@example.com", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
	assert.Empty(t, repo.byEmail)
}

func TestSignup_StorageErrorPropagates(t *testing.T) {
	repo := newMemRepo()
	repo.findErr = errors.Join(common.ErrStorage, errors.New("disk gone"))

	err := newUserService(repo).Signup(context.Background(), "A", "a@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrStorage)

	repo.findErr = nil
	repo.createErr = common.ErrStorage
	err = newUserService(repo).Signup(context.Background(), "A", "a@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	repo := newMemRepo()
	repo.createDelay = 5 * time.Millisecond
	s := newUserService(repo)

	const n = 10
	var wg sync.WaitGroup
	var ok, dup atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Signup(context.Background(), "A", "race@example.com", "pw")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrAlreadyExists):
				dup.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, dup.Load())
	assert.EqualValues(t, 1, repo.creates.Load())
}

func TestLogin(t *testing.T) {
	repo := newMemRepo()
	s := newUserService(repo)
	ctx := context.Background()
	require.NoError(t, s.Signup(ctx, "Alice", "alice@example.com", "s3cret"))

	t.Run("success", func(t *testing.T) {
		sess, err := s.Login(ctx, "alice@example.com", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, "Alice", sess.Name)
		assert.Equal(t, "alice@example.com", sess.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		sess, err := s.Login(ctx, "alice@example.com", "nope")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.Nil(t, sess)
	})

	t.Run("unknown email", func(t *testing.T) {
		sess, err := s.Login(ctx, "bob@example.com", "s3cret")
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.Nil(t, sess)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		_, err := s.Login(ctx, "Alice@example.com", "s3cret")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("72-byte password plus suffix", func(t *testing.T) {
		long := strings.Repeat("a", 72)
		require.NoError(t, s.Signup(ctx, "Long", "long@example.com", long))

		_, err := s.Login(ctx, "long@example.com", long)
		require.NoError(t, err)

		sess, err := s.Login(ctx, "long@example.com", long+"WRONG-SUFFIX")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
		assert.Nil(t, sess)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := s.Login(ctx, "", "s3cret")
		assert.ErrorIs(t, err, common.ErrValidation)
		_, err = s.Login(ctx, "alice@example.com", "")
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("storage error", func(t *testing.T) {
		broken := newMemRepo()
		broken.findErr = common.ErrStorage
		_, err := newUserService(broken).Login(ctx, "alice@example.com", "s3cret")
		assert.ErrorIs(t, err, common.ErrStorage)
	})
}

func TestVerify_RoundTrip(t *testing.T) {
	repo := newMemRepo()
	s := newUserService(repo)
	ctx := context.Background()
	require.NoError(t, s.Signup(ctx, "Alice", "alice@example.com", "s3cret"))

	sess, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	u, err := s.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Name, u.Name)
	assert.Equal(t, sess.Email, u.Email)
}

func TestVerify_Rejections(t *testing.T) {
	repo := newMemRepo()
	s := newUserService(repo)
	ctx := context.Background()
	require.NoError(t, s.Signup(ctx, "Alice", "alice@example.com", "s3cret"))
	sess, err := s.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	expired, err := auth.NewTokenService(testSecret, -time.Minute).Issue("alice@example.com")
	require.NoError(t, err)
	foreign, err := auth.NewTokenService([]byte("other"), time.Hour).Issue("alice@example.com")
	require.NoError(t, err)
	orphan, err := auth.NewTokenService(testSecret, time.Hour).Issue("gone@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", sess.Token[:len(sess.Token)-2] + "xx"},
		{"expired", expired},
		{"wrong secret", foreign},
		{"unknown user", orphan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := s.Verify(ctx, tt.token)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
			assert.Nil(t, u)
		})
	}
}

func TestVerify_StorageError(t *testing.T) {
	repo := newMemRepo()
	s := newUserService(repo)
	token, err := auth.NewTokenService(testSecret, time.Hour).Issue("a@example.com")
	require.NoError(t, err)

	repo.findErr = common.ErrStorage
	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.NotErrorIs(t, err, common.ErrInvalidToken)
}
