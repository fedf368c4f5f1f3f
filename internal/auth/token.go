// Package auth - token.go handles session token creation, signing, and verification
// using a shared secret, including lazy secret initialization and claims parsing.
// Tokens are stateless: they carry a snapshot of the user record so verification
// needs no database round-trip.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/large-event/teamd-backend/internal/db/models"
)

// DefaultTokenTTL is the session lifetime used when configuration supplies none.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for every verification failure. Expired, tampered,
// and malformed tokens are deliberately indistinguishable to callers so the API
// can surface a single opaque 401.
var ErrInvalidToken = errors.New("invalid or expired token")

var (
	// tokenSecret holds the validated signing secret
	tokenSecret     string
	tokenSecretOnce sync.Once
	tokenSecretErr  error
)

// Claims represents the session token claims structure. The user snapshot is
// embedded flat so non-Go clients (mobile, portal handoff) can decode it without
// knowing jwt library conventions.
type Claims struct {
	UserID        int    `json:"user_id,omitempty"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	IsSystemAdmin bool   `json:"is_system_admin"`
	jwt.RegisteredClaims
}

// isDevMode checks if we're in development mode
func isDevMode() bool {
	devMode := os.Getenv("DEV_MODE")
	ginMode := os.Getenv("GIN_MODE")

	return devMode == "true" || devMode == "1" || ginMode == "debug"
}

// generateRandomSecret creates a cryptographically secure random secret
func generateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("dev-fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// ValidateTokenSecret checks that the signing secret is properly configured.
// In production, this fails if TEAMD_JWT_SECRET is not set. In dev mode, it
// generates a random secret and logs a warning. Call this at application startup.
func ValidateTokenSecret() error {
	tokenSecretOnce.Do(func() {
		secret := os.Getenv("TEAMD_JWT_SECRET")

		if secret == "" {
			if isDevMode() {
				tokenSecret = generateRandomSecret()
				log.Printf("WARNING: TEAMD_JWT_SECRET not set. Using auto-generated secret for development.")
				log.Printf("WARNING: Sessions will not persist across restarts. Set TEAMD_JWT_SECRET for persistent sessions.")
			} else {
				tokenSecretErr = errors.New("SECURITY ERROR: TEAMD_JWT_SECRET environment variable is required in production. " +
					"Generate a secure secret with: openssl rand -hex 32")
			}
			return
		}

		if len(secret) < 32 {
			log.Printf("WARNING: TEAMD_JWT_SECRET is shorter than recommended 32 characters. Consider using a longer secret.")
		}

		tokenSecret = secret
	})

	return tokenSecretErr
}

// getTokenSecret retrieves the validated signing secret.
// Panics if ValidateTokenSecret() hasn't been called or failed.
func getTokenSecret() string {
	if tokenSecret == "" {
		if err := ValidateTokenSecret(); err != nil {
			panic(err)
		}
	}
	return tokenSecret
}

// GenerateToken creates a signed session token embedding the user snapshot.
func GenerateToken(user models.UserSnapshot, expiresIn time.Duration) (string, error) {
	if expiresIn == 0 {
		expiresIn = DefaultTokenTTL
	}

	claims := &Claims{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		IsSystemAdmin: user.IsSystemAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "teamd-api",
			Subject:   user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(getTokenSecret()))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken parses and validates a session token, returning the embedded
// user snapshot. A zero UserID is accepted: mobile and local-dev tokens may
// omit the id claim. Every failure mode returns ErrInvalidToken.
func VerifyToken(tokenString string) (models.UserSnapshot, error) {
	secret := getTokenSecret()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		return models.UserSnapshot{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return models.UserSnapshot{}, ErrInvalidToken
	}

	return models.UserSnapshot{
		ID:            claims.UserID,
		Email:         claims.Email,
		Name:          claims.Name,
		IsSystemAdmin: claims.IsSystemAdmin,
	}, nil
}
