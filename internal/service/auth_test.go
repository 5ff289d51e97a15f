package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"invoiceflow/internal/model"
	"invoiceflow/internal/repository"
	repoMocks "invoiceflow/internal/repository/mocks"
)

const testSecret = "test-secret"

func newTestAuth(users repository.UserRepository, opts ...AuthOption) AuthService {
	opts = append([]AuthOption{WithBcryptCost(bcrypt.MinCost)}, opts...)
	return NewAuthService(users, testSecret, time.Hour, opts...)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         RegisterInput
		setupMocks func(m *repoMocks.MockUserRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			in:   RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"},
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					return u.Email == "ana@example.com" && u.ID != "" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
				})).Return(func(_ context.Context, u *model.User) *model.User { return u }, nil)
			},
		},
		{
			name:    "invalid email",
			in:      RegisterInput{Name: "Ana", Email: "nope", Password: "secret1"},
			wantErr: ErrValidation,
		},
		{
			name:       "short password",
			in:         RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "123"},
			wantErr:    ErrValidation,
			wantErrMsg: "password must satisfy min=6",
		},
		{
			name:    "missing name",
			in:      RegisterInput{Email: "ana@example.com", Password: "secret1"},
			wantErr: ErrValidation,
		},
		{
			name: "email taken",
			in:   RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"},
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicate)
			},
			wantErr: ErrEmailTaken,
		},
		{
			name: "repository error",
			in:   RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"},
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErrMsg: "create user: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(repoMocks.MockUserRepository)
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}
			u, err := newTestAuth(m).Register(ctx, tt.in)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErrMsg != "" {
					assert.ErrorContains(t, err, tt.wantErrMsg)
				}
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Ana", u.Name)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginVerify(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", PasswordHash: hashed(t, "secret1")}

	t.Run("token round trip", func(t *testing.T) {
		m := new(repoMocks.MockUserRepository)
		m.On("FindByEmail", ctx, "ana@example.com").Return(user, nil)
		svc := newTestAuth(m)

		token, err := svc.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "secret1"})
		require.NoError(t, err)

		claims, err := svc.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.UserID)
		assert.Equal(t, "ana@example.com", claims.Email)
		require.NotNil(t, claims.ExpiresAt)
		require.NotNil(t, claims.IssuedAt)
		assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	})

	t.Run("unknown user", func(t *testing.T) {
		m := new(repoMocks.MockUserRepository)
		m.On("FindByEmail", ctx, "who@example.com").Return(nil, sql.ErrNoRows)

		_, err := newTestAuth(m).Login(ctx, LoginInput{Email: "who@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		m := new(repoMocks.MockUserRepository)
		m.On("FindByEmail", ctx, "ana@example.com").Return(user, nil)

		_, err := newTestAuth(m).Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("invalid login body", func(t *testing.T) {
		_, err := newTestAuth(new(repoMocks.MockUserRepository)).Login(ctx, LoginInput{})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("expired token", func(t *testing.T) {
		m := new(repoMocks.MockUserRepository)
		m.On("FindByEmail", ctx, "ana@example.com").Return(user, nil)
		now := time.Now()
		clock := func() time.Time { return now }
		svc := newTestAuth(m, WithAuthClock(clock))

		token, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)

		now = now.Add(2 * time.Hour)
		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := NewAuthService(nil, "another-secret", time.Hour)
		m := new(repoMocks.MockUserRepository)
		m.On("FindByEmail", ctx, "ana@example.com").Return(user, nil)
		token, err := newTestAuth(m).Login(ctx, LoginInput{Email: "ana@example.com", Password: "secret1"})
		require.NoError(t, err)

		_, err = other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects other algorithms and garbage", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			UserID:           "u-1",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		svc := newTestAuth(nil)
		for _, tok := range []string{unsigned, "", "a.b.c"} {
			_, err := svc.VerifyToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		}
	})
}
