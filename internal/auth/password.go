// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidDigest indicates that a stored credential digest is not in the
// expected encoded form.
var ErrInvalidDigest = errors.New("the encoded digest is not in the correct format")

// ErrIncompatibleVersion indicates that the Argon2 version is incompatible.
var ErrIncompatibleVersion = errors.New("incompatible version of argon2")

// params holds Argon2id hashing parameters.
type params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// Params is the default set of Argon2id parameters used for lobby credentials.
// Parallelism never drops below 1: argon2.IDKey panics on a parallelism
// degree of 0, which NumCPU/2 yields on a single-CPU host.
var Params = &params{
	memory:      64 * 1024,
	iterations:  5,
	parallelism: uint8(max(runtime.NumCPU()/2, 1)),
	saltLength:  16,
	keyLength:   32,
}

// HashCredential derives an Argon2id digest of a lobby password, encoded with
// version, parameters, salt, and key. The digest is what gets persisted in the
// lobbies catalog for private lobbies; plaintext passwords never reach a store.
func HashCredential(password string, p *params) (string, error) {
	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Key := base64.RawStdEncoding.EncodeToString(key)

	digest := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.iterations, p.parallelism, b64Salt, b64Key)
	return digest, nil
}

// VerifyCredential reports whether password matches the stored digest.
// A malformed digest returns an error rather than false, so callers can
// distinguish a wrong password from a corrupted catalog row.
func VerifyCredential(password, digest string) (bool, error) {
	p, salt, key, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, p.keyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// decodeDigest parses an encoded Argon2id digest into parameters, salt, and key.
func decodeDigest(digest string) (*params, []byte, []byte, error) {
	vals := strings.Split(digest, "$")
	if len(vals) != 6 {
		return nil, nil, nil, ErrInvalidDigest
	}

	var version int
	if _, err := fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return nil, nil, nil, err
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrIncompatibleVersion
	}

	p := &params{}
	if _, err := fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return nil, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(vals[4])
	if err != nil {
		return nil, nil, nil, err
	}
	p.saltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.Strict().DecodeString(vals[5])
	if err != nil {
		return nil, nil, nil, err
	}
	p.keyLength = uint32(len(key))

	return p, salt, key, nil
}
