package middleware

import "github.com/gin-gonic/gin"

// NoStore marks responses as private to the session so neither browsers
// nor proxies keep a copy of the plan.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
