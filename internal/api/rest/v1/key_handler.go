package v1

import (
	"fmt"
	"io"
	"net/http"

	"github.com/MGTheTrain/crypto-providers/internal/domain/keys"

	"github.com/gin-gonic/gin"
)

// Form fields of the inspect request
const (
	FormFieldKeyFile   = "file"
	FormFieldAlgorithm = "algorithm"
)

// KeyHandler defines the interface for handling key-related operations
type KeyHandler interface {
	Inspect(ctx *gin.Context)
}

// keyHandler struct holds the services
type keyHandler struct {
	keyInspectionService keys.KeyInspectionService
	maxKeyFileSize       int64
}

// NewKeyHandler creates a new KeyHandler. A positive maxKeyFileSize bounds uploaded key files in bytes.
func NewKeyHandler(keyInspectionService keys.KeyInspectionService, maxKeyFileSize int64) KeyHandler {
	return &keyHandler{
		keyInspectionService: keyInspectionService,
		maxKeyFileSize:       maxKeyFileSize,
	}
}

// Inspect handles the POST request to ingest and describe a key file
// @Summary Inspect a key file
// @Description Parse a PEM or DER encoded key and describe its algorithm, type, purposes and fingerprint.
// @Tags Key
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PEM or DER encoded key"
// @Param algorithm formData string false "Expected algorithm"
// @Success 200 {object} KeyInfoResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /keys/inspect [post]
func (handler *keyHandler) Inspect(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile(FormFieldKeyFile)
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("missing key file: %v", err))
		return
	}
	if handler.maxKeyFileSize > 0 && fileHeader.Size > handler.maxKeyFileSize {
		abortWithError(ctx, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("key file of %d bytes exceeds %d bytes", fileHeader.Size, handler.maxKeyFileSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("could not open key file: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("could not read key file: %v", err))
		return
	}

	info, err := handler.keyInspectionService.Inspect(ctx, data, ctx.PostForm(FormFieldAlgorithm))
	if err != nil {
		abortWithError(ctx, statusFor(err), fmt.Sprintf("could not inspect key: %v", err))
		return
	}

	ctx.JSON(http.StatusOK, KeyInfoResponse{
		ID:          info.ID,
		Algorithm:   info.Algorithm,
		Provider:    info.Provider,
		Type:        info.Type,
		Format:      info.Format,
		Size:        info.Size,
		Purposes:    info.Purposes,
		Fingerprint: info.Fingerprint,
	})
}
