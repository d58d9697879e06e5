package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Config describes the key-store files and password hashing cost. Fields can
// be populated from environment variables via github.com/caarlos0/env.
type Config struct {
	PrivateKeyFile string `env:"KEYSTORE_PRIVATE_KEY" envDefault:"private_key.pem"` // PEM-encoded RSA private key
	PublicKeyFile  string `env:"KEYSTORE_PUBLIC_KEY" envDefault:"public_key.pem"`   // PEM-encoded RSA public key
	BcryptCost     int    `env:"PASSWORD_BCRYPT_COST" envDefault:"10"`              // bcrypt work factor for password hashing
}

// Vault holds the process-wide keypair used for claim encryption together
// with the password hashing configuration. It is loaded once at startup and
// immutable afterwards, so it is safe for unlimited concurrent readers.
type Vault struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	bcryptCost int
}

// Load reads both key-store files and constructs the Vault. A missing or
// unparsable key file is returned as an error: the composition root treats
// it as fatal since the process cannot serve authenticated traffic without
// its keypair.
func Load(cfg Config) (*Vault, error) {
	privateKey, err := loadPrivateKey(cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}

	publicKey, err := loadPublicKey(cfg.PublicKeyFile)
	if err != nil {
		return nil, err
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Vault{
		privateKey: privateKey,
		publicKey:  publicKey,
		bcryptCost: cost,
	}, nil
}

// EncryptField encrypts a UTF-8 string under the public key using RSA-OAEP
// with SHA-256 for both the hash and the mask generation function, and
// returns the base64-encoded ciphertext. Only the private key can reverse it.
func (v *Vault) EncryptField(plaintext string) (string, error) {
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, v.publicKey, []byte(plaintext), nil)
	if err != nil {
		return "", errors.Join(ErrEncryptFailed, err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptField reverses EncryptField. Malformed base64, a ciphertext
// produced under a different key, or corruption all surface as
// ErrDecryptFailed; these errors propagate to the caller and are never
// swallowed.
func (v *Vault) DecryptField(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Join(ErrDecryptFailed, err)
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, v.privateKey, ciphertext, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptFailed, err)
	}
	return string(plaintext), nil
}

// HashPassword produces a one-way bcrypt hash with a fresh random salt baked
// into the output encoding. Two calls with the same input yield different
// hashes.
func (v *Vault) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.bcryptCost)
	if err != nil {
		return "", errors.Join(ErrHashFailed, err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash using
// bcrypt's own constant-time comparison.
func (v *Vault) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrLoadPrivateKey, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.Join(ErrLoadPrivateKey, fmt.Errorf("no PEM block in %s", path))
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.Join(ErrLoadPrivateKey, fmt.Errorf("%s: not an RSA key", path))
		}
		return rsaKey, nil
	}

	// Older key stores use the PKCS#1 format.
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Join(ErrLoadPrivateKey, err)
	}
	return key, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrLoadPublicKey, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.Join(ErrLoadPublicKey, fmt.Errorf("no PEM block in %s", path))
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Join(ErrLoadPublicKey, err)
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Join(ErrLoadPublicKey, fmt.Errorf("%s: not an RSA key", path))
	}
	return rsaKey, nil
}
