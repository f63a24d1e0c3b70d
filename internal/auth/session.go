// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signer holds the ed25519 key pair and token lifetime the package signs
// with. One signer is installed at startup via Init or InitFromPath.
type signer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	ttl     time.Duration // 0 means tokens never expire
}

var active signer

// tokenTTL reads TOKEN_EXPIRE_TIME, where "never", "0", or empty disables
// expiration.
func tokenTTL() time.Duration {
	raw := os.Getenv("TOKEN_EXPIRE_TIME")
	if raw == "never" || raw == "0" || raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		fmt.Printf("failed to parse token expire time: %v\n", err)
		os.Exit(1)
	}
	return d
}

// Init installs a signer with a fresh ed25519 key pair. Tokens do not
// survive a restart; the bot re-mints on demand.
func Init() {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}
	active = signer{private: priv, public: pub, ttl: tokenTTL()}
}

// InitFromPath installs a signer backed by ed25519 keys read from disk, for
// deployments that need tokens to outlive a restart.
func InitFromPath(privatePath, publicPath string) error {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	active = signer{
		private: ed25519.PrivateKey(priv),
		public:  ed25519.PublicKey(pub),
		ttl:     tokenTTL(),
	}
	return nil
}

// CreateJWT signs a token carrying "sub" = userID under the installed signer.
func CreateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
	}
	if active.ttl > 0 {
		claims["exp"] = time.Now().Add(active.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(active.private)
}

// AuthenticateJWT verifies a token and returns its "sub" claim.
func AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return active.public, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return userID, nil
}
