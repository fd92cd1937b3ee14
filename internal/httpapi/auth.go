package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"stockpos/backend/internal/domain"
)

const (
	RoleCashier       = "cashier"
	RoleStockManager  = "stock_manager"
	RolePurchasing    = "purchasing"
	RoleAdmin         = "admin"
	tokenIssuer       = "stockpos"
	defaultTokenTTL   = 8 * time.Hour
	minimumSecretSize = 32
)

// ValidRole reports whether role is one of the back-office roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCashier, RoleStockManager, RolePurchasing, RoleAdmin:
		return true
	}
	return false
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
}

type stockposClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration) (*AuthManager, error) {
	if len(secret) < minimumSecretSize {
		return nil, fmt.Errorf("auth secret must be at least %d characters", minimumSecretSize)
	}
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthManager{secret: []byte(secret), tokenTTL: tokenTTL}, nil
}

// Issue signs a bearer token for an operator. Tokens are minted by the
// tokengen command; the HTTP surface only verifies them.
func (a *AuthManager) Issue(actorID string, role string) (string, time.Time, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return "", time.Time{}, errors.New("actor id is required")
	}
	if !ValidRole(role) {
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(a.tokenTTL)
	claims := stockposClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Role: role,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &stockposClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(tokenIssuer), jwtlib.WithExpirationRequired())
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	if !ValidRole(claims.Role) {
		return domain.Actor{}, errors.New("invalid token role")
	}
	return domain.Actor{ID: sub, Role: claims.Role}, nil
}
