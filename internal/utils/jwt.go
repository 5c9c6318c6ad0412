package utils // package utils provides token signing and hashing helpers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/stock-inventory/internal/model"
)

// ErrTokenInvalid covers every verification failure: bad signature,
// expiry, wrong algorithm or malformed payload.  Callers must not tell
// these apart.
var ErrTokenInvalid = errors.New("invalid token")

// TokenPayload is the identity embedded in both access and refresh tokens.
type TokenPayload struct {
	UserID    int64       `json:"userId"`
	Name      string      `json:"name"`
	LastName  string      `json:"lastName"`
	CompanyID *int64      `json:"companyId"`
	Role      *model.Role `json:"role"`
	jwt.RegisteredClaims
}

// PayloadFor builds the token payload from a user row.
func PayloadFor(u model.User) TokenPayload {
	return TokenPayload{
		UserID:    u.ID,
		Name:      u.Name,
		LastName:  u.LastName,
		CompanyID: u.CompanyID,
		Role:      u.RoleID,
	}
}

// HasRole reports whether the payload carries one of roles.
func (p *TokenPayload) HasRole(roles map[model.Role]bool) bool {
	return p != nil && p.Role != nil && roles[*p.Role]
}

// Sign issues an HS256 token for p that expires after ttl.  Every token
// carries a fresh jti, so two tokens signed in the same second differ.
func Sign(p TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	p.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(p.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, p).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses token with secret and returns its payload.
func Verify(token string, secret []byte) (*TokenPayload, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenPayload{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	p, ok := parsed.Claims.(*TokenPayload)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if p.UserID == 0 || p.Subject != strconv.FormatInt(p.UserID, 10) {
		return nil, fmt.Errorf("%w: subject mismatch", ErrTokenInvalid)
	}
	return p, nil
}

// TokenIssuer signs and verifies the two token kinds, each under its own
// key, so possession of one secret cannot forge the other token.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (i *TokenIssuer) SignAccess(p TokenPayload) (string, error) {
	return Sign(p, i.accessSecret, i.accessTTL)
}

func (i *TokenIssuer) SignRefresh(p TokenPayload) (string, error) {
	return Sign(p, i.refreshSecret, i.refreshTTL)
}

func (i *TokenIssuer) VerifyAccess(token string) (*TokenPayload, error) {
	return Verify(token, i.accessSecret)
}

func (i *TokenIssuer) VerifyRefresh(token string) (*TokenPayload, error) {
	return Verify(token, i.refreshSecret)
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }
