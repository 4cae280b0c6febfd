package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer выпускает и проверяет HS256 токены доступа
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewIssuer(secret, issuer, audience string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL время жизни выпускаемого токена
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue подписывает токен для пользователя
func (i *Issuer) Issue(u *domain.User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"iss":      i.issuer,
		"aud":      i.audience,
		"sub":      u.ID.String(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
		"username": u.Username,
		"admin":    u.IsAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись, iss/aud и сроки, возвращает автора запроса
func (i *Issuer) Parse(raw string) (domain.Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithLeeway(30*time.Second), // small clock skew
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	admin, _ := claims["admin"].(bool)
	return domain.Principal{UserID: id, Username: username, IsAdmin: admin}, nil
}
