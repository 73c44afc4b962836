package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims is the payload of the HS256 access token issued by the account
// service. Sub carries the user id.
type AccessClaims struct {
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

func ParseAndValidate(token string, secret []byte, now time.Time) (*AccessClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrTokenInvalid
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	expectedSig := hmacSHA256(secret, []byte(headerB64+"."+payloadB64))
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode signature: %v", ErrTokenInvalid, err)
	}
	if !hmac.Equal(sig, expectedSig) {
		return nil, ErrTokenInvalid
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrTokenInvalid, err)
	}
	var claims AccessClaims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, fmt.Errorf("%w: unmarshal claims: %v", ErrTokenInvalid, err)
	}

	ts := now.Unix()
	if claims.Iat > ts {
		return nil, fmt.Errorf("%w: used before issued", ErrTokenInvalid)
	}
	if claims.Exp < ts {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

func (c AccessClaims) SignedString(secret []byte) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	payloadJSON, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadJSON)

	sigInput := header + "." + payload
	return sigInput + "." + base64.RawURLEncoding.EncodeToString(hmacSHA256(secret, []byte(sigInput))), nil
}

func hmacSHA256(secret, message []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return mac.Sum(nil)
}
