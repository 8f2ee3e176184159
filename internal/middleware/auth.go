package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quoteflow/cadence-api/pkg/security"
)

const (
	ContextOrganizationID = "organization_id"
	ContextUserID         = "user_id"
	HeaderCronAPIKey      = "X-Api-Key"
)

// AuthMiddleware authenticates app requests (JWT bearer tokens) and the
// scheduler trigger (static API key, stored bcrypt-hashed).
type AuthMiddleware struct {
	jwtSecret      []byte
	cronAPIKeyHash string
	hasher         security.KeyHasher
}

func NewAuthMiddleware(jwtSecret string, cronAPIKeyHash string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:      []byte(jwtSecret),
		cronAPIKeyHash: cronAPIKeyHash,
		hasher:         security.NewBcryptHasher(0),
	}
}

// Authenticate verifies the JWT token and sets org/user info in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := m.parseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		orgID, err := uuid.Parse(claims["org_id"].(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		c.Set(ContextOrganizationID, orgID)
		if sub, ok := claims["sub"].(string); ok {
			c.Set(ContextUserID, sub)
		}
		c.Next()
	}
}

// AuthenticateCron guards the scheduler trigger endpoint.
func (m *AuthMiddleware) AuthenticateCron() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderCronAPIKey)
		if key == "" || m.cronAPIKeyHash == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			c.Abort()
			return
		}
		if err := m.hasher.Compare(m.cronAPIKeyHash, key); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if _, ok := claims["org_id"].(string); !ok {
		return nil, fmt.Errorf("missing org_id claim")
	}
	return claims, nil
}

// OrganizationID extracts the authenticated organization from the context.
func OrganizationID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextOrganizationID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
