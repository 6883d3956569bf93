package response

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var exposeDetails atomic.Bool

// ExposeDetails controls whether ServerError includes the internal error
// text. Enabled only outside production.
func ExposeDetails(on bool) {
	exposeDetails.Store(on)
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// ServerError answers 500 with a generic message. The cause is attached to
// the gin context for the request logger.
func ServerError(c *gin.Context, code string, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	if err != nil && exposeDetails.Load() {
		ErrorWithDetails(c, 500, code, message, err.Error())
		return
	}
	Error(c, 500, code, message)
}
