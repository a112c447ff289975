package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Actor roles recognised by the portal.
const (
	RoleOrgAdmin = "org_admin"
	RoleOps      = "ops"
	RoleSystem   = "system"
)

// Context keys set by the middleware.
const (
	ContextUserID = "user_id"
	ContextOrgID  = "org_id"
	ContextRole   = "role"
)

// Claims carried in a portal access token.
type Claims struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Middleware validates the bearer token and exposes the actor's identity to
// downstream handlers.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextOrgID, claims.OrgID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose token does not carry the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// IssueToken mints an access token for the given actor. Used by the login
// flow and by tests.
func IssueToken(secret string, userID, orgID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		OrgID: orgID.String(),
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// OrgID extracts the authenticated organization ID from the request context.
func OrgID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.GetString(ContextOrgID))
}

// UserID extracts the authenticated user ID from the request context.
func UserID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.GetString(ContextUserID))
}
