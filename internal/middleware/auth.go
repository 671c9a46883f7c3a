package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"saku/internal/config"
	"saku/internal/logger"
	"saku/internal/services"
)

// getSessionKey returns the key shared with the identity provider.
func getSessionKey() []byte {
	return []byte(config.Get().SessionSecret)
}

// SessionClaims are the claims the external identity provider puts in a
// session token. The pipeline trusts them completely and performs no
// independent authentication.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateSessionToken mints a session token the way the identity
// provider does. Used by tests and local tooling.
func GenerateSessionToken(userID, email, name string, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getSessionKey())
}

// SessionMiddleware validates the bearer session token, provisions the
// local user row from its claims, and sets the user ID in the context.
func SessionMiddleware(userService services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return getSessionKey(), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		if _, err := userService.EnsureUser(claims.UserID, claims.Name, claims.Email); err != nil {
			logger.Get().Errorw("failed to provision user from session claims",
				"user_id", claims.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session user"})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
