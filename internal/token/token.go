// Package token issues and verifies the signed bearer tokens used for
// stateless authentication. Tokens are compact JWTs signed with HMAC-SHA512;
// validity is purely expiry-based, there is no revocation list.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkwell-hq/inkwell/internal/model"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, wrong
	// algorithms and out-of-range role claims. Callers should not tell the
	// client which part failed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken means the signature checked out but the validity
	// window has passed. Clients need a fresh login, not a retry.
	ErrExpiredToken = errors.New("token expired")
)

// MinSecretLen is the smallest accepted signing secret, in bytes.
const MinSecretLen = 64

// Claims is the verified identity carried by a token.
type Claims struct {
	UserID int64
	Role   model.Role
}

// Codec signs and verifies tokens with a single symmetric secret. The secret
// is read-only after construction, so a Codec is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func New(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Codec{secret: secret, ttl: ttl}, nil
}

// Issue produces a token for the given user valid in [now, now+ttl). The
// subject is the user id as a decimal string and the role travels as an
// integer claim.
func (c *Codec) Issue(userID int64, role model.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("cannot issue token for role %d", role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": int(role),
		"iat":  now.Unix(),
		"exp":  now.Add(c.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
}

// Verify checks the signature and validity window and returns the decoded
// identity. The accepted algorithm is pinned to HS512; "none" and any
// asymmetric mode fail as invalid.
func (c *Codec) Verify(tok string) (Claims, error) {
	parsed, err := jwt.Parse(tok,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, ErrInvalidToken
	}

	// Raw role integers stop here; everything downstream sees the enum.
	rawRole, ok := mapClaims["role"].(float64)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	role := model.Role(int(rawRole))
	if !role.Valid() {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: userID, Role: role}, nil
}
