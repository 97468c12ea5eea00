package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrNotConfigured means neither a password nor a password hash is set.
var ErrNotConfigured = errors.New("password is not configured")

// argonParams are the Argon2id cost settings carried inside a hash string.
type argonParams struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
}

// New hashes use 64 MiB, one pass and four lanes.
var defaultParams = argonParams{memory: 64 * 1024, time: 1, threads: 4}

const (
	saltLen = 16
	keyLen  = 32
)

// ErrMalformedHash is returned when ADMIN_PASSWORD_HASH cannot be parsed.
var ErrMalformedHash = errors.New("malformed argon2id hash")

func (p argonParams) derive(password string, salt []byte, size uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, size)
}

// HashPassword returns an encoded Argon2id hash of password, in the PHC
// form $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	p := defaultParams
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(p.derive(password, salt, keyLen))), nil
}

// VerifyPassword checks password against a hash made by HashPassword.
func VerifyPassword(password, hash string) (bool, error) {
	p, salt, want, err := decodeHash(hash)
	if err != nil {
		return false, err
	}
	got := p.derive(password, salt, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func decodeHash(hash string) (argonParams, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(hash, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argonParams{}, nil, nil, ErrMalformedHash
	}
	if fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return argonParams{}, nil, nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, fields[2])
	}
	p, err := parseParams(fields[3])
	if err != nil {
		return argonParams{}, nil, nil, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return argonParams{}, nil, nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return p, salt, key, nil
}

func parseParams(s string) (argonParams, error) {
	values := make(map[string]uint64, 3)
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return argonParams{}, fmt.Errorf("%w: parameter %q", ErrMalformedHash, kv)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return argonParams{}, fmt.Errorf("%w: parameter %q", ErrMalformedHash, kv)
		}
		values[k] = n
	}
	m, t, threads := values["m"], values["t"], values["p"]
	if m == 0 || t == 0 || threads == 0 {
		return argonParams{}, fmt.Errorf("%w: want m, t and p in %q", ErrMalformedHash, s)
	}
	if threads > 255 {
		return argonParams{}, fmt.Errorf("%w: parallelism %d exceeds 255", ErrMalformedHash, threads)
	}
	return argonParams{memory: uint32(m), time: uint32(t), threads: uint8(threads)}, nil
}

// Password is the shared admin password, stored either as an Argon2id hash
// or in plain text. The hash wins when both are set.
type Password struct {
	Plain string
	Hash  string
}

// Check compares candidate with the configured password.
func (p Password) Check(candidate string) (bool, error) {
	switch {
	case p.Hash != "":
		return VerifyPassword(candidate, p.Hash)
	case p.Plain != "":
		return subtle.ConstantTimeCompare([]byte(candidate), []byte(p.Plain)) == 1, nil
	default:
		return false, ErrNotConfigured
	}
}
