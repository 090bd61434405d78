// Package middleware provides authentication, logging, tracing, metrics and
// rate limiting middleware for the application.
package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"pubhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// IdentitySyncer mirrors a verified identity into local storage.
type IdentitySyncer interface {
	Sync(ctx context.Context, identity models.Identity) error
}

// Authenticator verifies bearer tokens issued by the identity provider.
type Authenticator struct {
	secret []byte
	issuer string
	syncer IdentitySyncer
}

// NewAuthenticator creates an Authenticator. syncer may be nil.
func NewAuthenticator(secret, issuer string, syncer IdentitySyncer) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, syncer: syncer}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get("Authorization"))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if err := a.authenticate(c, tokenString); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

// Optional authenticates when a token is present and lets anonymous
// requests through. An invalid token is still rejected.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Next()
		}
		tokenString, err := bearerToken(header)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		if err := a.authenticate(c, tokenString); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

// WebSocket accepts the token from the "token" query parameter, falling back
// to the Authorization header.
func (a *Authenticator) WebSocket() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if tokenString == "" {
			var err error
			tokenString, err = bearerToken(c.Get("Authorization"))
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized, err)
			}
		}
		if err := a.authenticate(c, tokenString); err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", models.NewUnauthorizedError("Authorization header required")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

func (a *Authenticator) authenticate(c *fiber.Ctx, tokenString string) error {
	identity, err := a.ParseIdentity(tokenString)
	if err != nil {
		return err
	}

	c.Locals("userID", identity.UserID)
	c.Locals("identity", identity)
	ctx := context.WithValue(c.UserContext(), UserIDKey, identity.UserID)
	c.SetUserContext(ctx)

	if a.syncer != nil {
		if err := a.syncer.Sync(ctx, identity); err != nil {
			// The request can proceed; fan-out just won't see this user yet.
			Logger.WarnContext(ctx, "failed to mirror identity", slog.String("error", err.Error()))
		}
	}
	return nil
}

// ParseIdentity validates tokenString and extracts the caller identity from
// the sub, role, name and email claims.
func (a *Authenticator) ParseIdentity(tokenString string) (models.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return models.Identity{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, models.NewUnauthorizedError("Invalid token claims")
	}

	subStr, err := claims.GetSubject()
	if err != nil || subStr == "" {
		return models.Identity{}, models.NewUnauthorizedError("Invalid token structure - missing subject")
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userID == 0 {
		return models.Identity{}, models.NewUnauthorizedError("Invalid user ID in token")
	}

	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return models.Identity{
		UserID:   uint(userID),
		Role:     models.ParseRole(role),
		FullName: name,
		Email:    email,
	}, nil
}

// IdentityFrom returns the identity stored by the auth middleware. The second
// result is false for anonymous requests.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals("identity").(models.Identity)
	return identity, ok
}
