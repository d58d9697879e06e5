package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
)

// DefaultKeyBits is the keypair size used when none is requested.
const DefaultKeyBits = 4096

// GenerateKeyPair creates a new RSA keypair for the claim-encryption vault.
func GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits == 0 {
		bits = DefaultKeyBits
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Join(ErrGenerateKeyPair, err)
	}
	return key, nil
}

// WriteKeyPair stores the keypair as two PEM files: the private key in
// PKCS#8 format and the public key in PKIX format, matching what Load
// expects. The private key file is created with owner-only permissions.
func WriteKeyPair(key *rsa.PrivateKey, privateFile, publicFile string) error {
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return errors.Join(ErrGenerateKeyPair, err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
	if err := os.WriteFile(privateFile, privatePEM, 0o600); err != nil {
		return errors.Join(ErrGenerateKeyPair, err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return errors.Join(ErrGenerateKeyPair, err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})
	if err := os.WriteFile(publicFile, publicPEM, 0o644); err != nil {
		return errors.Join(ErrGenerateKeyPair, err)
	}

	return nil
}
