package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"runtime"
	"strings"

	"github.com/flynn/noise"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is the number of iterations for key derivation.
	PBKDF2Iterations = 100000

	// KeySize is the size of a derived key.
	KeySize = 32

	secretBoxNonceSize = 24
	aeadNonceSize      = 8
)

// DefaultSalt is used by DeriveKey and NewCipher when no salt is given.
var DefaultSalt = []byte("Sodium Chloride")

var (
	// ErrEmptyPassphrase indicates a cipher requested without a passphrase.
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")

	// ErrUnknownSuite indicates an unsupported suite.
	ErrUnknownSuite = errors.New("unknown cipher suite")

	// ErrCiphertextTooShort indicates input shorter than nonce plus tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrDecryptFailed indicates a wrong key or tampered ciphertext.
	ErrDecryptFailed = errors.New("decryption failed")
)

// Suite selects the authenticated cipher used by a Cipher.
type Suite int

const (
	SuiteSecretBox Suite = iota
	SuiteChaChaPoly
	SuiteAESGCM
)

func (s Suite) String() string {
	switch s {
	case SuiteSecretBox:
		return "secretbox"
	case SuiteChaChaPoly:
		return noise.CipherChaChaPoly.CipherName()
	case SuiteAESGCM:
		return noise.CipherAESGCM.CipherName()
	}
	return "unknown"
}

// ParseSuite maps a configuration name to a Suite. Matching is
// case-insensitive; an empty name selects SuiteSecretBox.
func ParseSuite(name string) (Suite, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "secretbox":
		return SuiteSecretBox, nil
	case "chachapoly", "chacha20poly1305":
		return SuiteChaChaPoly, nil
	case "aesgcm", "aes-gcm":
		return SuiteAESGCM, nil
	}
	return 0, errors.Wrapf(ErrUnknownSuite, "%q", name)
}

// DeriveKey stretches passphrase into a key with PBKDF2-SHA256. A nil salt
// selects DefaultSalt.
func DeriveKey(passphrase string, salt []byte) [KeySize]byte {
	if salt == nil {
		salt = DefaultSalt
	}
	var key [KeySize]byte
	derived := pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
	copy(key[:], derived)
	wipe(derived)
	return key
}

// Cipher seals and opens payloads under one symmetric key. It is safe for
// concurrent use.
type Cipher struct {
	suite Suite
	key   [KeySize]byte
	aead  noise.Cipher
}

// NewCipher derives a key from passphrase and salt and returns a Cipher for
// suite.
func NewCipher(passphrase string, suite Suite, salt []byte) (*Cipher, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return NewCipherFromKey(DeriveKey(passphrase, salt), suite)
}

// NewCipherFromKey returns a Cipher using key directly.
func NewCipherFromKey(key [KeySize]byte, suite Suite) (*Cipher, error) {
	c := &Cipher{suite: suite, key: key}
	switch suite {
	case SuiteSecretBox:
	case SuiteChaChaPoly:
		c.aead = noise.CipherChaChaPoly.Cipher(key)
	case SuiteAESGCM:
		c.aead = noise.CipherAESGCM.Cipher(key)
	default:
		return nil, errors.Wrapf(ErrUnknownSuite, "%d", int(suite))
	}
	return c, nil
}

// Suite returns the cipher's suite.
func (c *Cipher) Suite() Suite {
	return c.suite
}

// Overhead returns how many bytes Encrypt adds to a payload.
func (c *Cipher) Overhead() int {
	if c.aead == nil {
		return secretBoxNonceSize + secretbox.Overhead
	}
	return aeadNonceSize + 16
}

// Encrypt returns nonce || sealed(plaintext).
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	if c.aead == nil {
		var nonce [secretBoxNonceSize]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return nil, errors.Wrap(err, "generate nonce")
		}
		out := make([]byte, secretBoxNonceSize, secretBoxNonceSize+len(plaintext)+secretbox.Overhead)
		copy(out, nonce[:])
		return secretbox.Seal(out, plaintext, &nonce, &c.key), nil
	}

	var prefix [aeadNonceSize]byte
	if _, err := rand.Read(prefix[:]); err != nil {
		return nil, errors.Wrap(err, "generate nonce")
	}
	n := binary.BigEndian.Uint64(prefix[:])
	out := make([]byte, aeadNonceSize, aeadNonceSize+len(plaintext)+16)
	copy(out, prefix[:])
	return c.aead.Encrypt(out, n, nil, plaintext), nil
}

// Decrypt opens a payload produced by Encrypt with the same key and suite.
func (c *Cipher) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) < c.Overhead() {
		return nil, errors.Wrapf(ErrCiphertextTooShort, "%d bytes", len(sealed))
	}

	if c.aead == nil {
		var nonce [secretBoxNonceSize]byte
		copy(nonce[:], sealed[:secretBoxNonceSize])
		plain, ok := secretbox.Open(nil, sealed[secretBoxNonceSize:], &nonce, &c.key)
		if !ok {
			return nil, ErrDecryptFailed
		}
		return plain, nil
	}

	n := binary.BigEndian.Uint64(sealed[:aeadNonceSize])
	plain, err := c.aead.Decrypt(nil, n, nil, sealed[aeadNonceSize:])
	if err != nil {
		return nil, errors.Wrap(ErrDecryptFailed, err.Error())
	}
	return plain, nil
}

// Close erases the key held by the Cipher. The Cipher must not be used
// afterwards.
func (c *Cipher) Close() {
	wipe(c.key[:])
	c.aead = nil
}

// wipe zeroes data in a way the compiler will not elide.
func wipe(data []byte) {
	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)
	runtime.KeepAlive(data)
}
