package walletpass

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	"smallbiznis-stampcard/pkg/errutil"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var errNotRSA = errors.New("private key is not an RSA key")

// ParsePrivateKey reads a PKCS#8 or PKCS#1 RSA key from PEM.
func ParsePrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errNotRSA
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// Signer produces RS256 compact JWTs with the service account key.
type Signer struct {
	signer jose.Signer
}

// NewSigner fails with a configuration error when the key cannot be parsed.
func NewSigner(pemKey string) (*Signer, error) {
	key, err := ParsePrivateKey(pemKey)
	if err != nil {
		return nil, errutil.Configuration("google wallet private key is invalid", err,
			errutil.WithDetails(errutil.Detail{Field: "private_key", Message: err.Error()}),
			errutil.WithField("missing", []string{"private_key"}),
		)
	}

	s, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, errutil.Configuration("google wallet private key is invalid", err,
			errutil.WithDetails(errutil.Detail{Field: "private_key", Message: err.Error()}))
	}
	return &Signer{signer: s}, nil
}

func (s *Signer) Sign(claims ...any) (string, error) {
	b := jwt.Signed(s.signer)
	for _, c := range claims {
		b = b.Claims(c)
	}

	token, err := b.Serialize()
	if err != nil {
		return "", errutil.BadGateway("failed to sign wallet token", err,
			errutil.WithDetails(errutil.Detail{Field: "jwt", Message: err.Error()}))
	}
	return token, nil
}

// lazySigner parses the key on first use so a bad key only fails wallet
// calls, never startup.
type lazySigner struct {
	pemKey string

	mu     sync.Mutex
	signer *Signer
}

func newLazySigner(pemKey string) *lazySigner {
	return &lazySigner{pemKey: pemKey}
}

func (l *lazySigner) get() (*Signer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.signer != nil {
		return l.signer, nil
	}
	s, err := NewSigner(l.pemKey)
	if err != nil {
		return nil, err
	}
	l.signer = s
	return s, nil
}
