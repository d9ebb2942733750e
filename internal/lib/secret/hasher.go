package secret

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// PRF identifies the keyed hash used for key derivation inside a packed hash.
type PRF uint32

const (
	PRFHMACSHA1   PRF = 0
	PRFHMACSHA256 PRF = 1
	PRFHMACSHA512 PRF = 2
)

const (
	formatMarker byte = 0x01

	DefaultIterations = 100_000

	saltSize   = 16 // 128-bit salt
	subKeySize = 32 // 256-bit derived sub-key
	headerSize = 13 // marker + prf + iterations + salt length
)

var (
	ErrEmptyInput        = errors.New("input must not be empty")
	ErrInvalidIterations = errors.New("iteration count must be at least 1")
)

// Hasher produces and verifies versioned, salted password hashes. It is
// stateless after construction and safe for concurrent use.
type Hasher struct {
	iterations int
	rand       io.Reader
}

// NewHasher rejects iteration counts below 1; misconfigured counts are not
// clamped to the default.
func NewHasher(iterations int) (*Hasher, error) {
	if iterations < 1 {
		return nil, ErrInvalidIterations
	}
	return &Hasher{iterations: iterations, rand: rand.Reader}, nil
}

// Default returns a hasher with the default iteration count.
func Default() *Hasher {
	return &Hasher{iterations: DefaultIterations, rand: rand.Reader}
}

// ComputeHash derives a fresh salted hash of plain using HMAC-SHA512 and the
// configured iteration count, packed as:
//
//	byte 0     format marker (0x01)
//	bytes 1-4  PRF id, big-endian
//	bytes 5-8  iteration count, big-endian
//	bytes 9-12 salt length, big-endian
//	bytes 13+  salt, then derived sub-key
//
// and base64-encoded.
func (h *Hasher) ComputeHash(plain string) (string, error) {
	const op = "secret.ComputeHash"

	if plain == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyInput)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	subKey := derive(PRFHMACSHA512, plain, salt, h.iterations, subKeySize)

	packed := make([]byte, 0, headerSize+len(salt)+len(subKey))
	packed = append(packed, formatMarker)
	packed = binary.BigEndian.AppendUint32(packed, uint32(PRFHMACSHA512))
	packed = binary.BigEndian.AppendUint32(packed, uint32(h.iterations))
	packed = binary.BigEndian.AppendUint32(packed, uint32(len(salt)))
	packed = append(packed, salt...)
	packed = append(packed, subKey...)

	return base64.StdEncoding.EncodeToString(packed), nil
}

// VerifyHash checks plain against a stored hash. It reports whether the
// hash matches and whether the stored hash was produced with weaker
// parameters than the current configuration and should be regenerated.
// Malformed or unknown payloads verify as (false, false); verification
// failure never leaks structural information through errors.
func (h *Hasher) VerifyHash(hashed, plain string) (ok, needsRehash bool) {
	packed, err := base64.StdEncoding.DecodeString(hashed)
	if err != nil {
		return false, false
	}
	if len(packed) < headerSize || packed[0] != formatMarker {
		return false, false
	}

	prf := PRF(binary.BigEndian.Uint32(packed[1:5]))
	iterations := int(binary.BigEndian.Uint32(packed[5:9]))
	saltLen := int(binary.BigEndian.Uint32(packed[9:13]))

	if prfHash(prf) == nil || iterations < 1 {
		return false, false
	}
	if saltLen < saltSize || len(packed) < headerSize+saltLen {
		return false, false
	}

	salt := packed[headerSize : headerSize+saltLen]
	expected := packed[headerSize+saltLen:]
	if len(expected) < saltSize {
		return false, false
	}

	actual := derive(prf, plain, salt, iterations, len(expected))
	if subtle.ConstantTimeCompare(expected, actual) != 1 {
		return false, false
	}

	needsRehash = iterations < h.iterations || prf != PRFHMACSHA512
	return true, needsRehash
}

func derive(prf PRF, plain string, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key([]byte(plain), salt, iterations, keyLen, prfHash(prf))
}

func prfHash(prf PRF) func() hash.Hash {
	switch prf {
	case PRFHMACSHA1:
		return sha1.New
	case PRFHMACSHA256:
		return sha256.New
	case PRFHMACSHA512:
		return sha512.New
	default:
		return nil
	}
}
