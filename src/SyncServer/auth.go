package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"

	"github.com/shelfsync/shelfsync/src/internal/config"
	"github.com/shelfsync/shelfsync/src/internal/domain"
	"github.com/shelfsync/shelfsync/src/internal/ports"
	"github.com/shelfsync/shelfsync/src/internal/services"
)

const userIDKey = "userID"

// Authenticator resolves KOReader sync credentials to a local user.
//
// Three modes, tried in order:
//  1. Basic auth (most secure): the username must match x-auth-user and
//     md5(password) must match x-auth-key when those headers are present,
//     then the hash is checked against the user's stored credential.
//  2. OIDC bearer token, when a provider is configured: the token is
//     verified and its preferred_username mapped to a local user.
//  3. KOReader headers only: x-auth-key is the md5 of the password, which
//     is exactly what the user table stores, so the hash is verified.
type Authenticator struct {
	users    ports.UserRepository
	verifier *oidc.IDTokenVerifier
}

func NewAuthenticator(users ports.UserRepository, oidcCfg config.OIDCConfig) *Authenticator {
	a := &Authenticator{users: users}
	if oidcCfg.ProviderURL == "" {
		return a
	}

	provider, err := oidc.NewProvider(context.Background(), oidcCfg.ProviderURL)
	if err != nil {
		log.Printf("Failed to query OIDC provider, bearer auth disabled: %v", err)
		return a
	}

	// Access tokens often carry an aud that is not the client_id.
	a.verifier = provider.Verifier(&oidc.Config{
		ClientID:          oidcCfg.ClientID,
		SkipClientIDCheck: true,
	})
	log.Println("OIDC bearer authentication enabled")
	return a
}

// RequireAuth authenticates the request and stores the user ID in the
// gin context, or aborts with 401.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.authenticate(c)
		if err != nil {
			log.Printf("Authentication failed: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
			return
		}

		user.LastSeen = time.Now()
		if err := a.users.Save(c.Request.Context(), user); err != nil {
			log.Printf("Failed to update last seen for user %s: %v", user.Username, err)
		}

		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (*domain.User, error) {
	ctx := c.Request.Context()
	authUser := strings.TrimSpace(c.GetHeader("x-auth-user"))
	authKey := strings.TrimSpace(c.GetHeader("x-auth-key"))

	if username, password, ok := c.Request.BasicAuth(); ok {
		if authUser != "" && !strings.EqualFold(username, authUser) {
			return nil, &domain.AuthError{Reason: "basic auth username does not match x-auth-user"}
		}
		hash := services.StringMD5(password)
		if authKey != "" && !strings.EqualFold(hash, authKey) {
			return nil, &domain.AuthError{Reason: "basic auth password does not match x-auth-key"}
		}
		return a.verifyCredential(ctx, username, hash)
	}

	if header := c.GetHeader("Authorization"); a.verifier != nil && strings.HasPrefix(header, "Bearer ") {
		return a.verifyBearer(ctx, strings.TrimPrefix(header, "Bearer "))
	}

	if authUser == "" || authKey == "" {
		return nil, &domain.AuthError{Reason: "missing x-auth-user or x-auth-key header"}
	}
	return a.verifyCredential(ctx, authUser, authKey)
}

func (a *Authenticator) verifyCredential(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	user, err := a.users.GetByName(ctx, username)
	if err != nil {
		return nil, &domain.AuthError{Reason: "unknown user " + username}
	}
	if !strings.EqualFold(user.PasswordHash, passwordHash) {
		return nil, &domain.AuthError{Reason: "wrong credentials for user " + username}
	}
	return user, nil
}

func (a *Authenticator) verifyBearer(ctx context.Context, token string) (*domain.User, error) {
	idToken, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, &domain.AuthError{Reason: "bearer token rejected: " + err.Error()}
	}

	var claims struct {
		Sub               string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &domain.AuthError{Reason: "bearer token claims unreadable"}
	}

	if claims.PreferredUsername != "" {
		if user, err := a.users.GetByName(ctx, claims.PreferredUsername); err == nil {
			return user, nil
		}
	}
	if user, err := a.users.GetByID(ctx, claims.Sub); err == nil {
		return user, nil
	}
	return nil, &domain.AuthError{Reason: "no local user for token subject " + claims.Sub}
}

// GetUserID returns the authenticated user's ID from the gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
