package login

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PlayerKey is a client's Mojang-signed chat key, carried in Login Start's
// sig_data field. Once verified against the trusted yggdrasil key it is used
// to check the Encryption Response's message signature and, later, chat
// message signatures.
type PlayerKey struct {
	ExpiresAt time.Time
	PublicKey *rsa.PublicKey
}

// ParsePlayerKey checks that the key has not expired and that its signature
// (produced by Mojang over the millisecond expiry and the DER-encoded
// public key) verifies against trustedKey, then parses the key itself.
func ParsePlayerKey(trustedKey *rsa.PublicKey, expiresAtMillis int64, der, signature []byte) (*PlayerKey, error) {
	expiresAt := time.UnixMilli(expiresAtMillis)
	if time.Now().After(expiresAt) {
		return nil, errors.New("login: player public key has expired")
	}

	digest := sha1.Sum([]byte(encodeKeyPEM(expiresAtMillis, der)))
	if err := rsa.VerifyPKCS1v15(trustedKey, crypto.SHA1, digest[:], signature); err != nil {
		return nil, fmt.Errorf("login: player public key signature invalid: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("login: failed to parse player public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("login: player public key is not RSA")
	}

	return &PlayerKey{ExpiresAt: expiresAt, PublicKey: rsaPub}, nil
}

// VerifyMessageSignature checks the Encryption Response's salt-based
// signature: SHA256(verify_token ‖ big-endian(salt)), signed by the player's
// private key.
func (k *PlayerKey) VerifyMessageSignature(verifyToken []byte, salt int64, signature []byte) error {
	var saltBytes [8]byte
	binary.BigEndian.PutUint64(saltBytes[:], uint64(salt))

	message := make([]byte, 0, len(verifyToken)+8)
	message = append(message, verifyToken...)
	message = append(message, saltBytes[:]...)

	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(k.PublicKey, crypto.SHA256, digest[:], signature)
}

// VerifyDataSignature checks a signature the player's private key produced
// over arbitrary data, e.g. a signed chat message.
func (k *PlayerKey) VerifyDataSignature(data, signature []byte) error {
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(k.PublicKey, crypto.SHA256, digest[:], signature)
}

// encodeKeyPEM reproduces the exact text Mojang signs when certifying a
// player's chat key: the millisecond expiry timestamp immediately followed
// by a standard 76-column-wrapped PEM block, with no separator between the
// two.
func encodeKeyPEM(expiresAtMillis int64, der []byte) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(expiresAtMillis, 10))
	b.WriteString("-----BEGIN RSA PUBLIC KEY-----\n")

	encoded := base64.StdEncoding.EncodeToString(der)
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		b.WriteString(encoded[i:end])
		b.WriteString("\n")
	}

	b.WriteString("-----END RSA PUBLIC KEY-----\n")
	return b.String()
}
