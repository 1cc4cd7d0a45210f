package auth

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

// Claims are the identity facts carried by a bearer token
type Claims struct {
	UserID   string
	TenantID string
}

// Provider issues and validates HS256 bearer tokens with a shared secret.
// The API middleware validates inbound tokens with it and the settlement
// client mints the token it presents to the invoice service.
type Provider struct {
	secret []byte
	ttl    time.Duration
}

// DefaultTokenTTL is how long an issued token stays valid
const DefaultTokenTTL = 30 * 24 * time.Hour

func NewProvider(secret string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Provider{secret: []byte(secret), ttl: ttl}
}

func (p *Provider) GenerateToken(userID, tenantID string) (string, error) {
	if len(p.secret) == 0 {
		return "", ierr.NewError("token secret not configured").
			WithHint("A signing secret is required to issue tokens").
			Mark(ierr.ErrSystem)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       now.Add(p.ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}

func (p *Provider) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, userOk := claims["user_id"].(string)
	if !userOk || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	tenantID, tenantOk := claims["tenant_id"].(string)
	if !tenantOk || tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	return &Claims{UserID: userID, TenantID: tenantID}, nil
}
