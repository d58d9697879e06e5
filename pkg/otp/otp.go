package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math"
	"strings"
)

// Algorithm selects the HMAC digest used for code generation.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1" // RFC 4226 default
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

// Encoding selects how the shared secret string is decoded into key bytes.
type Encoding string

const (
	EncodingBase32 Encoding = "base32" // canonical form for OTP secrets
	EncodingHex    Encoding = "hex"
	EncodingASCII  Encoding = "ascii"
)

type options struct {
	algorithm Algorithm
	encoding  Encoding
}

type Option func(*options)

// WithAlgorithm overrides the default HMAC-SHA1 digest.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) { o.algorithm = a }
}

// WithEncoding overrides the default base32 secret encoding.
func WithEncoding(e Encoding) Option {
	return func(o *options) { o.encoding = e }
}

// Generate implements the RFC 4226 HOTP algorithm: it derives a numeric code
// of the requested length from a shared secret and an 8-byte big-endian
// moving factor. The final reduction is modulo 10^digits as mandated by the
// RFC, left-padded with zeros.
//
// Generate is fully deterministic and has no side effects.
func Generate(secret string, movingFactor uint64, digits int, opts ...Option) (string, error) {
	o := options{
		algorithm: AlgorithmSHA1,
		encoding:  EncodingBase32,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if digits < 1 || digits > 9 {
		return "", ErrInvalidDigits
	}

	key, err := decodeSecret(secret, o.encoding)
	if err != nil {
		return "", err
	}

	newHash, err := hashFunc(o.algorithm)
	if err != nil {
		return "", err
	}

	msg := make([]byte, 8)
	binary.BigEndian.PutUint64(msg, movingFactor)

	mac := hmac.New(newHash, key)
	mac.Write(msg)
	sum := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte picks a 4-byte window,
	// the MSB of which is cleared to yield an unambiguous 31-bit integer.
	offset := sum[len(sum)-1] & 0x0f
	code := (uint32(sum[offset]&0x7f) << 24) |
		(uint32(sum[offset+1]) << 16) |
		(uint32(sum[offset+2]) << 8) |
		uint32(sum[offset+3])

	code %= uint32(math.Pow10(digits))

	return fmt.Sprintf("%0*d", digits, code), nil
}

func decodeSecret(secret string, encoding Encoding) ([]byte, error) {
	switch encoding {
	case EncodingBase32:
		normalized := strings.TrimSpace(strings.ToUpper(secret))
		key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(normalized, "="))
		if err != nil {
			return nil, errors.Join(ErrDecodeSecret, err)
		}
		return key, nil
	case EncodingHex:
		key, err := hex.DecodeString(secret)
		if err != nil {
			return nil, errors.Join(ErrDecodeSecret, err)
		}
		return key, nil
	case EncodingASCII:
		return []byte(secret), nil
	default:
		return nil, ErrDecodeSecret
	}
}

func hashFunc(a Algorithm) (func() hash.Hash, error) {
	switch a {
	case AlgorithmSHA1:
		return sha1.New, nil
	case AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmSHA512:
		return sha512.New, nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}
