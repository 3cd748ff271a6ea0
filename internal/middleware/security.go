package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultContentSecurityPolicy restricts resources to same origin.
	DefaultContentSecurityPolicy = "default-src 'self'; frame-ancestors 'none'"
	// EmbedContentSecurityPolicy allows the inline styles of the embed page.
	EmbedContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'; img-src * data:"
)

// SecurityHeaders applies common HTTP response headers that harden the API against
// clickjacking and MIME sniffing, and enforces HTTPS transport.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		setCommonSecurityHeaders(c)
		c.Header("Content-Security-Policy", DefaultContentSecurityPolicy)
		c.Next()
	}
}

// FrameableSecurityHeaders is the variant used by the public embed page. It
// lets third party sites frame the page. frameAncestors lists the allowed
// parent origins; empty means any.
func FrameableSecurityHeaders(frameAncestors ...string) gin.HandlerFunc {
	ancestors := "*"
	if len(frameAncestors) > 0 {
		ancestors = strings.Join(frameAncestors, " ")
	}
	csp := EmbedContentSecurityPolicy + "; frame-ancestors " + ancestors

	return func(c *gin.Context) {
		// Overrides any X-Frame-Options set by a group-wide middleware.
		c.Writer.Header().Del("X-Frame-Options")
		setCommonSecurityHeaders(c)
		c.Header("Content-Security-Policy", csp)
		c.Next()
	}
}

func setCommonSecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	c.Header("Referrer-Policy", "no-referrer")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
}
