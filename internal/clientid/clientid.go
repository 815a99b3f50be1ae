// Package clientid derives the per-client rate-limit key from the
// forwarded-address header.
package clientid

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Unknown identifies requests that carry no forwarded address.
const Unknown = "unknown"

// clientCtxKey is the Gin context key used to store the client identifier.
const clientCtxKey = "client_id"

// FromHeader returns the first hop of an X-Forwarded-For value, or Unknown
// when there is none.
func FromHeader(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return Unknown
	}
	return first
}

// Middleware stores the rate-limit key for the request. The service sits
// behind a proxy that sets X-Forwarded-For, so the header is trusted as is.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientCtxKey, FromHeader(c.GetHeader("X-Forwarded-For")))
		c.Next()
	}
}

// ID returns the client identifier from the request context.
func ID(c *gin.Context) string {
	v, _ := c.Get(clientCtxKey)
	s, _ := v.(string)
	if s == "" {
		return Unknown
	}
	return s
}
