package v1

import (
	"errors"
	"net/http"

	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrAlgorithmNotFound):
		return http.StatusNotFound
	case errors.Is(err, crypto.ErrKeyFormatUnrecognized),
		errors.Is(err, crypto.ErrAlgorithmMismatch),
		errors.Is(err, crypto.ErrUnsupportedPurpose),
		errors.Is(err, crypto.ErrCapabilityNotAvailable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}
