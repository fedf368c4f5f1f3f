package auth

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/large-event/teamd-backend/internal/db/models"
)

func TestMain(m *testing.M) {
	os.Setenv("TEAMD_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	os.Exit(m.Run())
}

func testUser() models.UserSnapshot {
	return models.UserSnapshot{
		ID:            7,
		Email:         "user@mes.dev",
		Name:          "MES User",
		IsSystemAdmin: false,
	}
}

// ---------------------------------------------------------------------------
// GenerateToken / VerifyToken round trip
// ---------------------------------------------------------------------------

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testUser(), 0)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	snapshot, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if snapshot != testUser() {
		t.Errorf("VerifyToken() = %+v, want %+v", snapshot, testUser())
	}
}

func TestTokenRoundTrip_SystemAdmin(t *testing.T) {
	admin := models.UserSnapshot{ID: 1, Email: "admin@system.com", Name: "System Admin", IsSystemAdmin: true}

	token, err := GenerateToken(admin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	snapshot, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if !snapshot.IsSystemAdmin {
		t.Error("IsSystemAdmin flag lost in round trip")
	}
}

func TestGenerateToken_ClaimsContent(t *testing.T) {
	tokenString, err := GenerateToken(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("TEAMD_JWT_SECRET")), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.Issuer != "teamd-api" {
		t.Errorf("issuer = %q, want teamd-api", claims.Issuer)
	}
	if claims.Subject != "user@mes.dev" {
		t.Errorf("subject = %q, want user@mes.dev", claims.Subject)
	}
	wantExp := time.Now().Add(time.Hour)
	if d := claims.ExpiresAt.Time.Sub(wantExp); d < -time.Minute || d > time.Minute {
		t.Errorf("expiry = %v, want about %v", claims.ExpiresAt.Time, wantExp)
	}
}

// ---------------------------------------------------------------------------
// VerifyToken failure modes
// ---------------------------------------------------------------------------

func TestVerifyToken_Expired(t *testing.T) {
	token, err := GenerateToken(testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	_, err = VerifyToken(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken(expired) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Tampered(t *testing.T) {
	token, err := GenerateToken(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d segments", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := VerifyToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken(tampered) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := VerifyToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyToken(%q) error = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestVerifyToken_RejectsUnsignedToken(t *testing.T) {
	// alg=none must never verify even with a syntactically valid payload.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Email: "user@mes.dev"})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := VerifyToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken(alg=none) error = %v, want ErrInvalidToken", err)
	}
}

// Tokens issued without a user id claim still verify; the snapshot carries a
// zero ID.
func TestVerifyToken_ZeroUserID(t *testing.T) {
	token, err := GenerateToken(models.UserSnapshot{Email: "legacy@example.com", Name: "Legacy"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	snapshot, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if snapshot.ID != 0 {
		t.Errorf("ID = %d, want 0", snapshot.ID)
	}
	if snapshot.Email != "legacy@example.com" {
		t.Errorf("Email = %q, want legacy@example.com", snapshot.Email)
	}
}

// ---------------------------------------------------------------------------
// Secret handling
// ---------------------------------------------------------------------------

func TestValidateTokenSecret_UsesEnvSecret(t *testing.T) {
	if err := ValidateTokenSecret(); err != nil {
		t.Fatalf("ValidateTokenSecret() error: %v", err)
	}
	if got := getTokenSecret(); got != os.Getenv("TEAMD_JWT_SECRET") {
		t.Error("token secret does not match TEAMD_JWT_SECRET")
	}
}

func TestGenerateRandomSecret(t *testing.T) {
	a := generateRandomSecret()
	b := generateRandomSecret()
	if len(a) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two generated secrets are identical")
	}
}

func TestIsDevMode(t *testing.T) {
	t.Setenv("DEV_MODE", "")
	t.Setenv("GIN_MODE", "")
	if isDevMode() {
		t.Error("isDevMode() = true with no env vars set")
	}

	t.Setenv("DEV_MODE", "true")
	if !isDevMode() {
		t.Error("isDevMode() = false with DEV_MODE=true")
	}

	t.Setenv("DEV_MODE", "")
	t.Setenv("GIN_MODE", "debug")
	if !isDevMode() {
		t.Error("isDevMode() = false with GIN_MODE=debug")
	}
}
