package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"media-server/internal/utils/platformerrors"
)

// ErrorResponse is the error body shape for every failure path.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleError maps domain errors onto HTTP responses. Typed platform errors
// carry their own status and message; anything else is a 500 with the
// fallback message.
func HandleError(reqCtx *gin.Context, err error, fallback string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType())
		message := platformErr.Message
		if message == "" {
			message = fallback
		}
		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{Error: message})
		return
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
}

// HandleValidationError writes a 400 with the given message.
func HandleValidationError(reqCtx *gin.Context, message string) {
	reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}
