// Command keygen generates the RSA keypair the claim vault encrypts with,
// writing PEM files compatible with the KEYSTORE_PRIVATE_KEY and
// KEYSTORE_PUBLIC_KEY settings.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chatkitlabs/chatd/pkg/secrets"
)

func main() {
	var (
		bits        = flag.Int("bits", secrets.DefaultKeyBits, "RSA key size in bits")
		privateFile = flag.String("private", "private_key.pem", "private key output path")
		publicFile  = flag.String("public", "public_key.pem", "public key output path")
		force       = flag.Bool("force", false, "overwrite existing key files")
	)
	flag.Parse()

	if !*force {
		for _, path := range []string{*privateFile, *publicFile} {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(os.Stderr, "keygen: %s already exists, use -force to overwrite\n", path)
				os.Exit(1)
			}
		}
	}

	key, err := secrets.GenerateKeyPair(*bits)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	if err := secrets.WriteKeyPair(key, *privateFile, *publicFile); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s and %s (%d bits)\n", *privateFile, *publicFile, *bits)
}
