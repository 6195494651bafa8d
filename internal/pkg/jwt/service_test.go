package jwt

import (
	"testing"
	"time"

	"lockedin/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACService_RoundTrip(t *testing.T) {
	svc := NewHMACService("secret")
	uid, rid := uuid.New(), uuid.New()

	tok, err := svc.Sign(uid, user.RoleNameRecruiter, rid, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uid, claims.UserID)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, user.Recruiter{RecruiterID: rid}, actor.Role)
	assert.Equal(t, uid, actor.UserID)
}

func TestHMACService_Rejects(t *testing.T) {
	svc := NewHMACService("secret")
	uid := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := NewHMACService("other").Sign(uid, user.RoleNameAdmin, uuid.Nil, time.Minute)
		require.NoError(t, err)
		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewHMACService("secret")
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		tok, err := past.Sign(uid, user.RoleNameAdmin, uuid.Nil, time.Minute)
		require.NoError(t, err)
		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("refresh token", func(t *testing.T) {
		c := Claims{
			UserID:    uid,
			Role:      user.RoleNameAdmin,
			TokenType: "refresh",
			RegisteredClaims: jwtlib.RegisteredClaims{
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unknown role", func(t *testing.T) {
		tok, err := svc.Sign(uid, "superuser", uuid.New(), time.Minute)
		require.NoError(t, err)
		claims, err := svc.ValidateToken(tok)
		require.NoError(t, err)
		_, err = claims.Actor()
		assert.ErrorIs(t, err, user.ErrUnknownRole)
	})
}
