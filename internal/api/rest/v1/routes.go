package v1

import (
	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"
	"github.com/MGTheTrain/crypto-providers/internal/domain/keys"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all the API routes for version 1.
func SetupRoutes(r *gin.Engine,
	catalogService catalog.CatalogService,
	hashingService catalog.HashingService,
	keyInspectionService keys.KeyInspectionService,
	maxKeyFileSize int64) {

	v1 := r.Group(BasePath)

	catalogHandler := NewCatalogHandler(catalogService, hashingService)
	v1.GET("/providers", catalogHandler.ListProviders)
	v1.GET("/algorithms/:name", catalogHandler.GetAlgorithm)
	v1.POST("/hashes/:algorithm", catalogHandler.Hash)

	keyHandler := NewKeyHandler(keyInspectionService, maxKeyFileSize)
	v1.POST("/keys/inspect", keyHandler.Inspect)
}
