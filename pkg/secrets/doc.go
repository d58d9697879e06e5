// Package secrets owns the process-wide cryptographic material: an RSA
// keypair used to encrypt individual token claims, and the bcrypt
// configuration for password hashing.
//
// The Vault is constructed exactly once at startup from two PEM key-store
// files and injected into every component that needs it; a missing or
// corrupt key file must abort startup. After Load the keypair is immutable,
// so no synchronization is required beyond safe publication.
//
//	vault, err := secrets.Load(secrets.Config{
//		PrivateKeyFile: "private_key.pem",
//		PublicKeyFile:  "public_key.pem",
//	})
//	if err != nil {
//		log.Fatal(err) // cannot serve authenticated traffic
//	}
//
// Field encryption uses RSA-OAEP with SHA-256 for both the hash and the
// MGF1 mask generation function; ciphertexts are base64-encoded strings.
// Encrypt/decrypt failures always propagate to the caller.
package secrets
