package secrets

import "errors"

var (
	ErrLoadPrivateKey  = errors.New("secrets: failed to load private key")
	ErrLoadPublicKey   = errors.New("secrets: failed to load public key")
	ErrEncryptFailed   = errors.New("secrets: failed to encrypt field")
	ErrDecryptFailed   = errors.New("secrets: failed to decrypt field")
	ErrHashFailed      = errors.New("secrets: failed to hash password")
	ErrGenerateKeyPair = errors.New("secrets: failed to generate keypair")
)
