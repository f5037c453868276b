package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	tok, exp, err := m.GenerateAccessToken("u1", "author", "s1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "author", claims.Role)
	assert.Equal(t, "s1", claims.SessionID)

	_, err = m.ParseRefreshToken(tok)
	assert.Error(t, err, "access token must not verify with the refresh secret")
}

func TestResetToken(t *testing.T) {
	s := NewResetTokenSigner("reset-secret", time.Hour)
	fp := s.Fingerprint("u1", "hash-1", nil)

	tok, _, err := s.Sign("u1", fp)
	require.NoError(t, err)

	uid, gotFP, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
	assert.Equal(t, fp, gotFP)

	_, _, err = NewResetTokenSigner("other", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	_, _, err = s.Verify("garbage")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenExpiry(t *testing.T) {
	s := NewResetTokenSigner("reset-secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	tok, _, err := s.Sign("u1", "fp")
	require.NoError(t, err)

	s.now = time.Now
	_, _, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrResetTokenExpired)
}

func TestFingerprintChangesWithState(t *testing.T) {
	s := NewResetTokenSigner("reset-secret", time.Hour)
	login := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	base := s.Fingerprint("u1", "hash-1", nil)
	assert.Equal(t, base, s.Fingerprint("u1", "hash-1", nil))
	assert.NotEqual(t, base, s.Fingerprint("u1", "hash-2", nil))
	assert.NotEqual(t, base, s.Fingerprint("u1", "hash-1", &login))
	assert.NotEqual(t, base, s.Fingerprint("u2", "hash-1", nil))
}

func TestUIDEncoding(t *testing.T) {
	enc := EncodeUID("5a0c1e1e-8f0e-4b7a-9c55-0d1a2b3c4d5e")
	dec, err := DecodeUID(enc)
	require.NoError(t, err)
	assert.Equal(t, "5a0c1e1e-8f0e-4b7a-9c55-0d1a2b3c4d5e", dec)

	_, err = DecodeUID("***")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(hash, "s3cret-pass"))
	assert.False(t, CompareHashAndPassword(hash, "wrong"))

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
