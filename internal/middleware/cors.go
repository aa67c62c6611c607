package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const MsgCORS = "Error de CORS"

// CORS allows browser requests from the front-end origin only. Requests
// without an Origin header are refused unless allowNoOrigin is set, which is
// how API clients such as curl or Postman are let in.
//
// It must be installed on the engine so preflight requests, which match no
// route, still get an answer. Paths starting with one of exempt skip it.
func CORS(frontendURL string, allowNoOrigin bool, exempt ...string) gin.HandlerFunc {
	policy := cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		for _, prefix := range exempt {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		origin := c.GetHeader("Origin")
		if origin == "" && !allowNoOrigin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": MsgCORS})
			return
		}
		if origin != "" && origin != frontendURL {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": MsgCORS})
			return
		}
		policy(c)
	}
}
