package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/carcraze/marketplace-api/internal/apperror"
	"github.com/carcraze/marketplace-api/internal/dto"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Internal errors are logged with their cause and reported without detail.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := Render(err)
		if apperror.CodeOf(err) == apperror.CodeInternal {
			log.Error("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", err,
			)
		}
		c.JSON(status, body)
	}
}

// Render maps err to its HTTP status and public body.
func Render(err error) (int, dto.ErrorResponse) {
	code := apperror.CodeOf(err)
	meta := apperror.MetadataFor(code)

	message := meta.PublicMessage
	if typed := apperror.As(err); typed != nil && meta.Exposed && typed.Message() != "" {
		message = typed.Message()
	}
	return meta.HTTPStatus, dto.ErrorResponse{Error: dto.ErrorBody{Code: string(code), Message: message}}
}

func abortWith(c *gin.Context, err *apperror.Error) {
	status, body := Render(err)
	c.AbortWithStatusJSON(status, body)
}
