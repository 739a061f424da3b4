package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, auth gin.HandlerFunc) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1", auth)
	{
		proofs := v1.Group("/proofs")
		proofs.POST("/auto-validate-transaction", handler.AutoValidateTransaction)
		proofs.POST("/auto-validate-referral", handler.AutoValidateReferral)
		proofs.POST("/manual", handler.SubmitManualProof)
		proofs.POST("/:id/review", handler.ReviewProof)
		proofs.GET("/:id", handler.GetProof)
	}
}
