package middleware

import (
	"errors"
	"strings"

	"github.com/auth-space/core/internal/pkg/response"
	"github.com/auth-space/core/internal/pkg/session"
	"github.com/auth-space/core/internal/pkg/signer"
	"github.com/auth-space/core/internal/pkg/tokenstore"
	"github.com/gin-gonic/gin"
)

const ContextKeyIdentity = "identity"

// Auth returns a middleware that enforces bearer token authentication. Any
// validation rejection is a 401 carrying the rejection kind; a revocation
// store outage is a 503, never a silent "logged out".
func Auth(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing_token", "authorization token is required")
			return
		}

		identity, err := m.Validate(c.Request.Context(), token)
		if err != nil {
			code, message := RejectionCode(err)
			if errors.Is(err, tokenstore.ErrUnavailable) || errors.Is(err, tokenstore.ErrTimeout) {
				response.ServiceUnavailable(c, code, message)
				return
			}
			response.Unauthorized(c, code, message)
			return
		}
		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

// RejectionCode maps a validation error onto its machine-readable code and a
// human message.
func RejectionCode(err error) (code, message string) {
	switch {
	case errors.Is(err, signer.ErrMalformed):
		return "malformed_token", "token could not be parsed"
	case errors.Is(err, signer.ErrInvalidSignature):
		return "invalid_signature", "token signature does not match"
	case errors.Is(err, signer.ErrExpired):
		return "token_expired", "token lifetime has elapsed"
	case errors.Is(err, session.ErrRevoked):
		return "revoked", "session was logged out or expired"
	case errors.Is(err, session.ErrSuperseded):
		return "superseded", "a newer login replaced this session"
	case errors.Is(err, tokenstore.ErrTimeout):
		return "store_timeout", "revocation store timed out"
	case errors.Is(err, tokenstore.ErrUnavailable):
		return "store_unavailable", "revocation store unavailable"
	default:
		return "unauthorized", "token rejected"
	}
}

// CurrentIdentity extracts the authenticated identity from context.
func CurrentIdentity(c *gin.Context) string {
	v, _ := c.Get(ContextKeyIdentity)
	id, _ := v.(string)
	return id
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
