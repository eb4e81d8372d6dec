// Package actor authenticates the command invocations forwarded by the
// messaging gateway. Each request carries a signed token with the actor's
// identity, guild, channel and admin flag; signature verification happens
// at the gateway's key boundary, here we just parse and validate the token.
package actor

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gravadigital/bookpoll-api/internal/domain/poll"
	"github.com/gravadigital/bookpoll-api/internal/logger"
)

const contextKey = "actor"

// Claims are the actor claims the gateway embeds in each command token
type Claims struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Middleware returns a gin middleware that parses the bearer token into a
// poll.Actor and rejects requests without a valid one.
func Middleware(secret string) gin.HandlerFunc {
	log := logger.WithContext("component", "middleware", "middleware", "actor")

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing actor token",
			})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		a, err := Parse(tokenStr, secret)
		if err != nil {
			log.Warn("actor token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid actor token",
			})
			return
		}

		c.Set(contextKey, a)
		c.Next()
	}
}

// Parse validates a token string and extracts the actor
func Parse(tokenStr, secret string) (poll.Actor, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return poll.Actor{}, err
	}
	if !token.Valid {
		return poll.Actor{}, errors.New("token is not valid")
	}

	if claims.Subject == "" {
		return poll.Actor{}, errors.New("token has no subject")
	}
	if claims.GuildID == "" {
		return poll.Actor{}, errors.New("token has no guild_id")
	}

	return poll.Actor{
		ID:        claims.Subject,
		GuildID:   claims.GuildID,
		ChannelID: claims.ChannelID,
		IsAdmin:   claims.IsAdmin,
	}, nil
}

// FromContext returns the authenticated actor set by the middleware
func FromContext(c *gin.Context) (poll.Actor, bool) {
	value, exists := c.Get(contextKey)
	if !exists {
		return poll.Actor{}, false
	}

	a, ok := value.(poll.Actor)
	return a, ok
}
