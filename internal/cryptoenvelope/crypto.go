// Package cryptoenvelope implements the two-layer cryptosystem described
// by the wire protocol: an RSA-1024 keypair used to wrap a random
// AES-256 session key, AES-256-CBC with a fixed all-zero IV to encrypt
// the file payload, and the UNIX cksum-compatible CRC-32 used for
// end-to-end integrity over the plaintext.
//
// The fixed IV is a known wire-compatibility constraint, not a bug to be
// fixed: the server expects every payload encrypted under IV=0.
package cryptoenvelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrCrypto wraps key generation, wrap/unwrap, and block-cipher failures.
var ErrCrypto = errors.New("cryptoenvelope: crypto operation failed")

// KeyBits is the RSA modulus size implied by the 128-byte wrapped-key
// ciphertext.
const KeyBits = 1024

// SessionKeySize is the AES-256 session key length.
const SessionKeySize = 32

// zeroIV is the fixed 16-byte all-zero IV the wire protocol requires.
var zeroIV = make([]byte, aes.BlockSize)

// KeyPair holds a generated RSA-1024 keypair.
type KeyPair struct {
	Private *rsa.PrivateKey
}

// GenerateKeyPair creates a new RSA-1024 keypair.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: generate keypair: %v", ErrCrypto, err)
	}
	return KeyPair{Private: priv}, nil
}

// PublicKeyDER serializes the public key as PKIX DER. With a 1024-bit
// modulus and Go's fixed public exponent 65537 this is 162 bytes, not 160.
func (kp KeyPair) PublicKeyDER() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&kp.Private.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal public key: %v", ErrCrypto, err)
	}
	return der, nil
}

// PrivateKeyDER serializes the private key as PKCS#1 DER.
func (kp KeyPair) PrivateKeyDER() []byte {
	return x509.MarshalPKCS1PrivateKey(kp.Private)
}

// PrivateKeyBase64 returns the DER-encoded private key, Base64-encoded,
// as persisted in me.info and priv.key.
func (kp KeyPair) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(kp.PrivateKeyDER())
}

// ParsePrivateKeyBase64 decodes a Base64 DER private key as persisted by
// a prior run.
func ParsePrivateKeyBase64(encoded string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64 private key: %v", ErrCrypto, err)
	}
	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key DER: %v", ErrCrypto, err)
	}
	return priv, nil
}

// GenerateSessionKey returns a random 32-byte AES-256 session key.
func GenerateSessionKey() ([]byte, error) {
	key := make([]byte, SessionKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: generate session key: %v", ErrCrypto, err)
	}
	return key, nil
}

// WrapSessionKey wraps a session key under the given RSA public key
// using RSAES-OAEP with SHA-1.
func WrapSessionKey(pub *rsa.PublicKey, sessionKey []byte) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, sessionKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrap session key: %v", ErrCrypto, err)
	}
	return wrapped, nil
}

// UnwrapSessionKey unwraps a session key with the given RSA private key.
func UnwrapSessionKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	key, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap session key: %v", ErrCrypto, err)
	}
	if len(key) != SessionKeySize {
		return nil, fmt.Errorf("%w: unwrapped session key length %d, want %d", ErrCrypto, len(key), SessionKeySize)
	}
	return key, nil
}

// pkcs7Pad returns p padded to a multiple of aes.BlockSize using PKCS#7.
func pkcs7Pad(p []byte) []byte {
	padLen := aes.BlockSize - len(p)%aes.BlockSize
	padded := make([]byte, len(p)+padLen)
	copy(padded, p)
	for i := len(p); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad strips PKCS#7 padding from p, validating the pad bytes.
func pkcs7Unpad(p []byte) ([]byte, error) {
	if len(p) == 0 || len(p)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not a multiple of block size", ErrCrypto, len(p))
	}
	padLen := int(p[len(p)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(p) {
		return nil, fmt.Errorf("%w: invalid PKCS#7 padding length %d", ErrCrypto, padLen)
	}
	for _, b := range p[len(p)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: invalid PKCS#7 padding byte", ErrCrypto)
		}
	}
	return p[:len(p)-padLen], nil
}

// Encrypt encrypts plaintext under key using AES-256-CBC with the fixed
// all-zero IV and PKCS#7 padding. len(key) must be SessionKeySize.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: new AES cipher: %v", ErrCrypto, err)
	}
	padded := pkcs7Pad(plaintext)
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, zeroIV)
	mode.CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// Decrypt decrypts ciphertext under key using AES-256-CBC with the fixed
// all-zero IV, returning the unpadded plaintext.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: new AES cipher: %v", ErrCrypto, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not a multiple of block size", ErrCrypto, len(ciphertext))
	}
	padded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, zeroIV)
	mode.CryptBlocks(padded, ciphertext)
	return pkcs7Unpad(padded)
}
