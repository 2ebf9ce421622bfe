package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Success writes data as the 200 body.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Fail writes {"error": msg} with the given status.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorBody{Error: msg})
}

// FailWithMessage adds the underlying error text.
func FailWithMessage(c *gin.Context, status int, msg string, err error) {
	body := ErrorBody{Error: msg}
	if err != nil {
		body.Message = err.Error()
	}
	c.JSON(status, body)
}
