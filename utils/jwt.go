package utils

import (
	"errors"
	"time"

	"bookify/config"

	"github.com/golang-jwt/jwt"
)

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = "bookify-dev"
	}
	return []byte(secret)
}

// GenerateGuestToken creates a signed JWT for an anonymous visitor. The
// subject is the guest identifier used to key the persisted cart snapshot.
func GenerateGuestToken(guestID string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": guestID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ParseGuestToken validates a guest token and returns the guest identifier.
func ParseGuestToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid guest token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("guest token missing subject")
	}
	return sub, nil
}
