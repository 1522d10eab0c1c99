package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: testSecret, Validity: 72 * time.Hour})
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)
	subject := uuid.New()

	tok, err := svc.Issue(subject, model.PurposePaymentConfirmation)
	require.NoError(t, err)
	assert.Equal(t, subject, tok.SubjectID)
	assert.Equal(t, now, tok.IssuedAt)
	assert.Equal(t, now.Add(72*time.Hour), tok.ExpiresAt)
	assert.NotContains(t, tok.Value, subject.String())

	got, err := svc.Validate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, subject, got.SubjectID)
	assert.Equal(t, model.PurposePaymentConfirmation, got.Purpose)
}

func TestIssue_Unguessable(t *testing.T) {
	svc := newTestService(t, time.Now())
	subject := uuid.New()

	a, err := svc.Issue(subject, model.PurposeBookingAvailability)
	require.NoError(t, err)
	b, err := svc.Issue(subject, model.PurposeBookingAvailability)
	require.NoError(t, err)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestValidate_Expired(t *testing.T) {
	issued := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, issued)

	tok, err := svc.Issue(uuid.New(), model.PurposePaymentConfirmation)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(73 * time.Hour) }
	_, err = svc.Validate(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_Invalid(t *testing.T) {
	svc := newTestService(t, time.Now())
	tok, err := svc.Issue(uuid.New(), model.PurposePaymentConfirmation)
	require.NoError(t, err)

	other, err := NewService(Config{Secret: strings.Repeat("z", 40)})
	require.NoError(t, err)

	tampered := tok.Value[:len(tok.Value)-2] + "xx"

	tests := []struct {
		name  string
		value string
		svc   *Service
	}{
		{"empty", "", svc},
		{"garbage", "not-a-token", svc},
		{"tampered signature", tampered, svc},
		{"different secret", tok.Value, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Validate(tt.value)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidate_PurposeCannotBeSwapped(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, now)

	// Sign booking claims with the payment key: the booking key must reject it.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: model.PurposeBookingAvailability,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "recruit-api",
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	value, err := forged.SignedString(svc.keys[model.PurposePaymentConfirmation])
	require.NoError(t, err)

	_, err = svc.Validate(value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestService(t, time.Now())
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Purpose: model.PurposePaymentConfirmation,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "recruit-api",
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	value, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Validate(value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Config{Secret: "short"})
	assert.Error(t, err)

	svc := newTestService(t, time.Now())
	_, err = svc.Issue(uuid.Nil, model.PurposePaymentConfirmation)
	assert.Error(t, err)
	_, err = svc.Issue(uuid.New(), model.TokenPurpose("other"))
	assert.Error(t, err)
}
