package auth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/go-jose/go-jose/v4"
)

// TransportKeyBits is the RSA modulus size of the transport key pairs.
const TransportKeyBits = 2048

// Flow selects which login flow a transport key pair serves.
type Flow int

const (
	// FlowAPI is the machine (Api) login flow.
	FlowAPI Flow = iota
	// FlowUser is the human (User) login flow.
	FlowUser
)

func (f Flow) String() string {
	switch f {
	case FlowAPI:
		return "api"
	case FlowUser:
		return "user"
	default:
		return fmt.Sprintf("flow(%d)", int(f))
	}
}

var (
	keyAlgorithms = []jose.KeyAlgorithm{jose.RSA_OAEP_256, jose.ECDH_ES_A256KW}
	contentAlgs   = []jose.ContentEncryption{jose.A256GCM}
)

type keyCell struct {
	once sync.Once
	key  *rsa.PrivateKey
	der  []byte
	err  error
}

// KeyStore holds one lazily created RSA key pair per login flow. The pairs
// live for the lifetime of the store and are never rotated. Private keys
// never leave the store.
type KeyStore struct {
	bits  int
	cells [2]keyCell
}

// NewKeyStore creates an empty key store. Key pairs are generated on first use.
func NewKeyStore() *KeyStore {
	return &KeyStore{bits: TransportKeyBits}
}

func (s *KeyStore) cell(flow Flow) (*keyCell, error) {
	if flow != FlowAPI && flow != FlowUser {
		return nil, fmt.Errorf("unknown login flow %s", flow)
	}
	c := &s.cells[flow]
	c.once.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, s.bits)
		if err != nil {
			c.err = fmt.Errorf("generate %s transport key: %w", flow, err)
			return
		}
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			c.err = fmt.Errorf("marshal %s transport key: %w", flow, err)
			return
		}
		c.key, c.der = key, der
	})
	return c, c.err
}

// PublicKey returns the PKIX DER encoding of the flow's public key, creating
// the key pair on first call.
func (s *KeyStore) PublicKey(flow Flow) ([]byte, error) {
	c, err := s.cell(flow)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), c.der...), nil
}

// Decrypt opens a JWE compact ciphertext sealed to the flow's public key.
func (s *KeyStore) Decrypt(flow Flow, ciphertext string) ([]byte, error) {
	c, err := s.cell(flow)
	if err != nil {
		return nil, err
	}
	return Open(c.key, ciphertext)
}

// ImportPublicKey parses a PKIX DER public key supplied by a caller. RSA and
// ECDSA keys are accepted.
func ImportPublicKey(der []byte) (any, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyImport, err)
	}
	switch pub.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrKeyImport, pub)
	}
}

// SealTo encrypts plaintext to the given public key as a JWE compact string.
// RSA keys use RSA-OAEP-256. ECDSA keys use ECDH-ES+A256KW, which draws a
// fresh ephemeral key pair for every call.
func SealTo(pub any, plaintext []byte) (string, error) {
	var alg jose.KeyAlgorithm
	switch pub.(type) {
	case *rsa.PublicKey:
		alg = jose.RSA_OAEP_256
	case *ecdsa.PublicKey:
		alg = jose.ECDH_ES_A256KW
	default:
		return "", fmt.Errorf("%w: unsupported key type %T", ErrKeyImport, pub)
	}

	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: alg, Key: pub}, nil)
	if err != nil {
		return "", fmt.Errorf("create encrypter: %w", err)
	}
	obj, err := enc.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return obj.CompactSerialize()
}

// Open decrypts a JWE compact string with the given private key.
func Open(priv any, ciphertext string) ([]byte, error) {
	obj, err := jose.ParseEncryptedCompact(ciphertext, keyAlgorithms, contentAlgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	plaintext, err := obj.Decrypt(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return plaintext, nil
}
