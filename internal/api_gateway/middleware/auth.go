package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mindful-finance-ledger/internal/config"
)

// OwnerIDKey holds the authenticated owner, taken from the token subject
const OwnerIDKey = "owner_id"

var errMissingSubject = errors.New("token has no subject")

// Auth verifies an HS256 bearer token and stores its subject as the owner of the request.
// Every ledger read and write downstream is scoped to that owner.
func Auth(cfg config.AuthConfig, logger *slog.Logger) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		ownerID, err := ownerFromToken(parser, raw, secret)
		if err != nil {
			logger.Warn("Rejected bearer token",
				"error", err,
				"path", c.Request.URL.Path,
				"correlation_id", GetCorrelationID(c),
			)
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid bearer token")
			return
		}

		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

func GetOwnerID(c *gin.Context) string {
	if id, exists := c.Get(OwnerIDKey); exists {
		if ownerID, ok := id.(string); ok {
			return ownerID
		}
	}
	return ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func ownerFromToken(parser *jwt.Parser, raw string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}
