package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookieName holds the signed admin session flag. There is a
// single shared admin: the token carries one boolean capability, not an
// identity.
const SessionCookieName = "admin_session"

const sessionTTL = 24 * time.Hour

type SessionAuth struct {
	secret string
}

func NewSessionAuth(secret string) *SessionAuth {
	return &SessionAuth{secret: secret}
}

func (a *SessionAuth) GenerateToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin": true,
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTTL).Unix(),
	})

	tokenStr, err := token.SignedString([]byte(a.secret))
	if err != nil {
		return "", errors.New("unable to sign the session token")
	}

	return tokenStr, nil
}

func (a *SessionAuth) VerifyToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.secret), nil
	})
	if err != nil {
		return errors.New("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return errors.New("invalid session claims")
	}
	if admin, ok := claims["admin"].(bool); !ok || !admin {
		return errors.New("missing admin capability")
	}

	return nil
}

func (a *SessionAuth) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (a *SessionAuth) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware gates the admin routes behind the session cookie.
func (a *SessionAuth) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Accès non autorisé")
			}
			if err := a.VerifyToken(cookie.Value); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Accès non autorisé")
			}
			return next(c)
		}
	}
}
