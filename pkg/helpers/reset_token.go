package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrResetTokenExpired = errors.New("reset token expired")
	ErrResetTokenInvalid = errors.New("reset token invalid")
)

// ResetTokenSigner issues password reset tokens. A token is an HS256 JWT
// carrying the user id and a fingerprint of the account state it was issued
// for; it is only honoured while that fingerprint is unchanged.
type ResetTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokenSigner(secret string, ttl time.Duration) *ResetTokenSigner {
	return &ResetTokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type resetClaims struct {
	UserID      string `json:"uid"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Fingerprint is HMAC-SHA256 over the user id, password hash and last login.
func (s *ResetTokenSigner) Fingerprint(userID, passwordHash string, lastLogin *time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(userID))
	mac.Write([]byte{0})
	mac.Write([]byte(passwordHash))
	mac.Write([]byte{0})
	if lastLogin != nil {
		mac.Write([]byte(lastLogin.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *ResetTokenSigner) Sign(userID, fingerprint string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := &resetClaims{
		UserID:      userID,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tok, exp, err
}

// Verify checks signature and expiry and returns the embedded user id and fingerprint.
func (s *ResetTokenSigner) Verify(token string) (string, string, error) {
	claims := &resetClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrResetTokenExpired
		}
		return "", "", fmt.Errorf("%w: %v", ErrResetTokenInvalid, err)
	}
	if claims.UserID == "" || claims.Fingerprint == "" {
		return "", "", ErrResetTokenInvalid
	}
	return claims.UserID, claims.Fingerprint, nil
}

// EncodeUID and DecodeUID carry a user id in a URL path segment.
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func DecodeUID(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
