package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/napcube/pod-reservation-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// OperatorContextKey is the key used to store operator information in Gin context
const OperatorContextKey = "operator"

// OperatorContext represents the authenticated operator's information
type OperatorContext struct {
	Operator string   `json:"operator"`
	Roles    []string `json:"roles"`
}

// AuthMiddleware creates a middleware that validates admin JWT tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithFields(fields).Warn("AUTH FAILED: Missing authorization header")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
				"code":    "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		// Check Bearer token format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.WithFields(fields).Warn("AUTH FAILED: Invalid auth format")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
				"code":    "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			logger.WithFields(fields).Warn("AUTH FAILED: Empty token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Token cannot be empty",
				"code":    "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if jwt.IsExpired(err) {
				logger.WithFields(fields).WithError(err).Warn("AUTH FAILED: Token expired")
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "token_expired",
					"message": "Admin token has expired",
					"code":    "TOKEN_EXPIRED",
				})
			} else {
				logger.WithFields(fields).WithError(err).Warn("AUTH FAILED: Invalid token")
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Invalid admin token",
					"code":    "INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		c.Set(OperatorContextKey, OperatorContext{
			Operator: claims.Operator,
			Roles:    claims.Roles,
		})

		c.Next()
	}
}

// RequireRole creates a middleware that checks if the operator has one of the roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorCtx, exists := GetOperatorContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Operator context not found. Auth middleware may not be applied.",
				"code":    "MISSING_OPERATOR_CONTEXT",
			})
			c.Abort()
			return
		}

		hasRole := false
		for _, requiredRole := range roles {
			for _, role := range operatorCtx.Roles {
				if role == requiredRole {
					hasRole = true
					break
				}
			}
			if hasRole {
				break
			}
		}

		if !hasRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You don't have permission to access this resource",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOperatorContext retrieves the operator context from Gin context
func GetOperatorContext(c *gin.Context) (OperatorContext, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return OperatorContext{}, false
	}

	operatorCtx, ok := value.(OperatorContext)
	if !ok {
		return OperatorContext{}, false
	}

	return operatorCtx, true
}
