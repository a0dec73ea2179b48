package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  12 * time.Hour,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	}
	return NewJWTService(cfg)
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                 "test-secret",
		AccessTokenExpiration:  12 * time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.accessExpiration)
	assert.Equal(t, cfg.RefreshTokenExpiration, svc.refreshExpiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestJWTService_GenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()

	t.Run("issues a signed bearer pair", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair("till-1", "cashier")

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.WithinDuration(t, time.Now().Add(12*time.Hour), pair.AccessTokenExpiresAt, 5*time.Second)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), pair.RefreshTokenExpiresAt, 5*time.Second)
	})

	t.Run("rejects empty username", func(t *testing.T) {
		_, err := svc.GenerateTokenPair("", "cashier")

		assert.ErrorIs(t, err, ErrMissingUsername)
	})
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("round-trips claims", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair("till-1", "cashier")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(pair.AccessToken)

		require.NoError(t, err)
		assert.Equal(t, "till-1", claims.Username)
		assert.Equal(t, "cashier", claims.Role)
		assert.Equal(t, "test-issuer", claims.Issuer)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("rejects a refresh token on the access path", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair("till-1", "cashier")
		require.NoError(t, err)

		_, err = svc.ValidateToken(pair.RefreshToken)

		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                 "completely-different-secret-key-32",
			AccessTokenExpiration:  time.Hour,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "test-issuer",
		})
		pair, err := other.GenerateTokenPair("till-1", "cashier")
		require.NoError(t, err)

		_, err = svc.ValidateToken(pair.AccessToken)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			AccessTokenExpiration:  -time.Minute,
			RefreshTokenExpiration: -time.Minute,
			Issuer:                 "test-issuer",
		})
		pair, err := expired.GenerateTokenPair("till-1", "cashier")
		require.NoError(t, err)

		_, err = svc.ValidateToken(pair.AccessToken)

		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects token without username claim", func(t *testing.T) {
		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "jti-1",
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			TokenType: TokenTypeAccess,
		}
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := raw.SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)

		assert.ErrorIs(t, err, ErrMissingUsername)
	})

	t.Run("rejects unexpected signing method", func(t *testing.T) {
		// alg=none style tokens must never validate
		raw := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "till-1", TokenType: TokenTypeAccess})
		signed, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)

		assert.Error(t, err)
	})
}

func TestJWTService_RefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()

	t.Run("rotates the pair from a valid refresh token", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair("till-1", "cashier")
		require.NoError(t, err)

		rotated, err := svc.RefreshTokenPair(pair.RefreshToken)

		require.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEmpty(t, rotated.RefreshToken)

		claims, err := svc.ValidateToken(rotated.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "till-1", claims.Username)
		assert.Equal(t, "cashier", claims.Role)
	})

	t.Run("rejects an access token on the refresh path", func(t *testing.T) {
		pair, err := svc.GenerateTokenPair("till-1", "cashier")
		require.NoError(t, err)

		_, err = svc.RefreshTokenPair(pair.AccessToken)

		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.RefreshTokenPair("not-a-token")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	t.Run("future expiry yields positive TTL", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}

		ttl := claims.GetRemainingTTL()

		assert.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("past expiry yields zero", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}

		assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())
	})

	t.Run("missing expiry yields zero", func(t *testing.T) {
		claims := &Claims{}

		assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())
	})
}
