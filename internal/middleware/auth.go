package middleware

import (
	"strings"

	"github.com/dimitrije/hackteams-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// TokenValidator checks a bearer token issued by the identity provider.
type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

// Auth admits requests carrying a valid bearer token and stores the caller
// on the context. The email is lower-cased so joins match seeded rows.
func Auth(validator TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Unauthorized("missing or malformed bearer token")
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}
		if claims.UserID == uuid.Nil {
			c.Unauthorized("token has no user")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, strings.ToLower(strings.TrimSpace(claims.Email)))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}
