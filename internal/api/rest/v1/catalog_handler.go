package v1

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"

	"github.com/gin-gonic/gin"
)

// CatalogHandler defines the interface for provider discovery and hashing
type CatalogHandler interface {
	ListProviders(ctx *gin.Context)
	GetAlgorithm(ctx *gin.Context)
	Hash(ctx *gin.Context)
}

// catalogHandler struct holds the services
type catalogHandler struct {
	catalogService catalog.CatalogService
	hashingService catalog.HashingService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService catalog.CatalogService, hashingService catalog.HashingService) CatalogHandler {
	return &catalogHandler{
		catalogService: catalogService,
		hashingService: hashingService,
	}
}

// ListProviders handles the GET request to list registered providers
// @Summary List registered providers
// @Description List the registered providers in registration order with the algorithms they contribute.
// @Tags Catalog
// @Produce json
// @Success 200 {array} ProviderResponse
// @Failure 500 {object} ErrorResponse
// @Router /providers [get]
func (handler *catalogHandler) ListProviders(ctx *gin.Context) {
	infos, err := handler.catalogService.Providers(ctx)
	if err != nil {
		abortWithError(ctx, statusFor(err), fmt.Sprintf("failed to list providers: %v", err))
		return
	}

	var listResponse = []ProviderResponse{}
	for _, info := range infos {
		listResponse = append(listResponse, ProviderResponse{
			Name:        info.Name,
			Description: info.Description,
			Version:     info.Version,
			Algorithms:  info.Algorithms,
		})
	}

	ctx.JSON(http.StatusOK, listResponse)
}

// GetAlgorithm handles the GET request to describe an algorithm
// @Summary Describe an algorithm
// @Description Describe the capabilities, block modes and key generation parameters of an algorithm.
// @Tags Catalog
// @Produce json
// @Param name path string true "Algorithm name"
// @Success 200 {object} AlgorithmResponse
// @Failure 404 {object} ErrorResponse
// @Router /algorithms/{name} [get]
func (handler *catalogHandler) GetAlgorithm(ctx *gin.Context) {
	name := ctx.Param("name")

	info, err := handler.catalogService.Algorithm(ctx, name)
	if err != nil {
		abortWithError(ctx, statusFor(err), fmt.Sprintf("algorithm %s not available: %v", name, err))
		return
	}

	response := AlgorithmResponse{
		Name:             info.Name,
		Provider:         info.Provider,
		Capabilities:     info.Capabilities,
		BlockModes:       info.BlockModes,
		DefaultBlockMode: info.DefaultBlockMode,
	}
	if gen := info.KeyGeneration; gen != nil {
		response.KeyGeneration = &KeyGenerationResponse{
			Purposes:        gen.Purposes,
			DefaultKeySize:  gen.DefaultKeySize,
			AllowedKeySizes: gen.AllowedKeySizes,
			Asymmetric:      gen.Asymmetric,
		}
	}

	ctx.JSON(http.StatusOK, response)
}

// Hash handles the POST request to digest data
// @Summary Digest data
// @Description Digest UTF-8 or base64 encoded data with a hasher algorithm and return lowercase hex.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param algorithm path string true "Hasher algorithm"
// @Param requestBody body HashRequest true "Data to digest"
// @Success 200 {object} HashResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /hashes/{algorithm} [post]
func (handler *catalogHandler) Hash(ctx *gin.Context) {
	algorithm := ctx.Param("algorithm")

	var request HashRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("invalid hash request: %v", err))
		return
	}
	if err := request.Validate(); err != nil {
		abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}

	data := []byte(request.Data)
	if request.Encoding == EncodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(request.Data)
		if err != nil {
			abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("invalid base64 data: %v", err))
			return
		}
		data = decoded
	}

	digest, err := handler.hashingService.Hash(ctx, algorithm, data)
	if err != nil {
		abortWithError(ctx, statusFor(err), fmt.Sprintf("failed to hash with %s: %v", algorithm, err))
		return
	}

	ctx.JSON(http.StatusOK, HashResponse{Algorithm: algorithm, Digest: digest})
}
