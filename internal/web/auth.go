package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cardvault/internal/model"
)

// Authenticator resolves a bearer token to a tenant identity. The core
// trusts the resolved client id for all scoping.
type Authenticator interface {
	ClientByToken(token string) (*model.Client, error)
}

// StaticTokens is a fixed token table, enough for development and tests.
type StaticTokens map[string]model.Client

func (st StaticTokens) ClientByToken(token string) (*model.Client, error) {
	client, ok := st[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &client, nil
}

const clientKey = "client"

// authRequired rejects requests without a resolvable bearer token and
// stores the resolved client on the request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		client, err := s.auth.ClientByToken(token)
		if err != nil {
			slog.Error("unauthorized api request", "path", c.Request.URL.Path, "ip", c.ClientIP())
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(clientKey, client)
		c.Next()
	}
}

func currentClient(c *gin.Context) *model.Client {
	return c.MustGet(clientKey).(*model.Client)
}
