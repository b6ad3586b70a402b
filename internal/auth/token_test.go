package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caller = domain.MustAddress("0xa11ce00000000000000000000000000000000005")

func TestIssuer_RoundTrip(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	iss, err := NewIssuer([]byte("secret"), "eventvex", time.Hour, clk)
	require.NoError(t, err)

	token, err := iss.Issue(caller)
	require.NoError(t, err)

	got, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, caller, got)

	clk.Advance(2 * time.Hour)
	_, err = iss.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Rejects(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	iss, err := NewIssuer([]byte("secret"), "eventvex", 0, clk)
	require.NoError(t, err)
	other, err := NewIssuer([]byte("other"), "eventvex", 0, clk)
	require.NoError(t, err)
	foreign, err := NewIssuer([]byte("secret"), "someone-else", 0, clk)
	require.NoError(t, err)

	forged, err := other.Issue(caller)
	require.NoError(t, err)
	wrongIssuer, err := foreign.Issue(caller)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: caller.String(), Issuer: "eventvex",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice", Issuer: "eventvex",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong key":    forged,
		"wrong issuer": wrongIssuer,
		"alg none":     noneAlg,
		"bad subject":  badSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewIssuer_RequiresKey(t *testing.T) {
	_, err := NewIssuer(nil, "eventvex", time.Hour, nil)
	require.ErrorIs(t, err, ErrMissingKey)
}
