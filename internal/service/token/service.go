package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/jwalitptl/recruit-api/internal/model"
)

var (
	// ErrTokenInvalid covers unknown, forged, malformed and wrong-purpose tokens.
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

const (
	DefaultValidity = 7 * 24 * time.Hour
	minSecretLength = 32
	keyInfoPrefix   = "recruit-api/confirmation-token/"
)

type claims struct {
	Purpose model.TokenPurpose `json:"pur"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret   string
	Issuer   string
	Validity time.Duration
}

// Service mints and validates confirmation tokens. Tokens are stateless signed
// values; they are never stored and never revoked, because single use is enforced by
// the status of the record they point at.
type Service struct {
	keys     map[model.TokenPurpose][]byte
	issuer   string
	validity time.Duration
	now      func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretLength)
	}
	if cfg.Validity <= 0 {
		cfg.Validity = DefaultValidity
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "recruit-api"
	}

	keys := make(map[model.TokenPurpose][]byte, 2)
	for _, p := range []model.TokenPurpose{model.PurposePaymentConfirmation, model.PurposeBookingAvailability} {
		key, err := deriveKey([]byte(cfg.Secret), p)
		if err != nil {
			return nil, err
		}
		keys[p] = key
	}

	return &Service{
		keys:     keys,
		issuer:   cfg.Issuer,
		validity: cfg.Validity,
		now:      time.Now,
	}, nil
}

// deriveKey gives each purpose its own signing key so a token minted for one kind of
// record can never be replayed against another.
func deriveKey(secret []byte, purpose model.TokenPurpose) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, []byte(keyInfoPrefix+string(purpose)))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive token key: %w", err)
	}
	return key, nil
}

func (s *Service) Issue(subjectID uuid.UUID, purpose model.TokenPurpose) (*model.ConfirmationToken, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return nil, fmt.Errorf("unknown token purpose %q", purpose)
	}
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject id is required")
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.validity)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	value, err := t.SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.ConfirmationToken{
		Value:     value,
		SubjectID: subjectID,
		Purpose:   purpose,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate resolves a token value to its subject. Expiry is checked against the wall
// clock at call time.
func (s *Service) Validate(value string) (*model.TokenSubject, error) {
	if value == "" {
		return nil, ErrTokenInvalid
	}

	var c claims
	_, err := jwt.ParseWithClaims(value, &c, func(t *jwt.Token) (interface{}, error) {
		cl, ok := t.Claims.(*claims)
		if !ok {
			return nil, ErrTokenInvalid
		}
		key, ok := s.keys[cl.Purpose]
		if !ok {
			return nil, ErrTokenInvalid
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	subjectID, err := uuid.Parse(c.Subject)
	if err != nil || subjectID == uuid.Nil {
		return nil, ErrTokenInvalid
	}

	return &model.TokenSubject{SubjectID: subjectID, Purpose: c.Purpose}, nil
}
