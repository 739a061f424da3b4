package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/api/middleware"
	"github.com/swagly/proof-validator/internal/api/shared/dto"
	apierrors "github.com/swagly/proof-validator/internal/api/shared/errors"
	"github.com/swagly/proof-validator/internal/proof"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// AutoValidateTransaction validates a transaction proof
	// POST /api/v1/proofs/auto-validate-transaction
	AutoValidateTransaction(c *gin.Context)

	// AutoValidateReferral validates a referral link proof
	// POST /api/v1/proofs/auto-validate-referral
	AutoValidateReferral(c *gin.Context)

	// SubmitManualProof stores a text or image proof for review
	// POST /api/v1/proofs/manual
	SubmitManualProof(c *gin.Context)

	// ReviewProof approves or rejects a pending proof (API key only)
	// POST /api/v1/proofs/:id/review
	ReviewProof(c *gin.Context)

	// GetProof retrieves a single proof
	// GET /api/v1/proofs/:id
	GetProof(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	service proof.Service
}

// NewHandler creates a new REST API handler
func NewHandler(service proof.Service) Handler {
	return &handler{service: service}
}

func (h *handler) AutoValidateTransaction(c *gin.Context) {
	var req dto.AutoValidateTransactionRequest
	if !bindRequest(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	result := h.service.SubmitTransaction(c.Request.Context(), proof.SubmitRequest{
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
		PassportID: req.PassportID,
		Input:      req.TransactionURL,
	})
	respondResult(c, result)
}

func (h *handler) AutoValidateReferral(c *gin.Context) {
	var req dto.AutoValidateReferralRequest
	if !bindRequest(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	result := h.service.SubmitReferral(c.Request.Context(), proof.SubmitRequest{
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
		PassportID: req.PassportID,
		Input:      req.ReferralURL,
	})
	respondResult(c, result)
}

func (h *handler) SubmitManualProof(c *gin.Context) {
	var req dto.ManualProofRequest
	if !bindRequest(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	result := h.service.SubmitManualProof(c.Request.Context(), proof.ManualRequest{
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
		PassportID: req.PassportID,
		ProofType:  req.ProofType,
		Content:    req.Content,
	})
	respondResult(c, result)
}

func (h *handler) ReviewProof(c *gin.Context) {
	proofID := c.Param("id")
	if proofID == "" {
		respondBadRequest(c, "Proof ID is required")
		return
	}

	// reviews are an admin operation, end-user tokens may not perform them
	if middleware.AuthType(c) != middleware.AUTH_TYPE_APIKEY {
		respondForbidden(c, "Reviewing proofs requires an API key")
		return
	}

	var req dto.ReviewProofRequest
	if !bindRequest(c, &req) {
		return
	}

	result := h.service.ReviewProof(c.Request.Context(), proof.ReviewRequest{
		ProofID:  proofID,
		Approve:  req.Approve(),
		Reviewer: req.Reviewer,
		Reason:   req.Reason,
	})
	respondResult(c, result)
}

func (h *handler) GetProof(c *gin.Context) {
	proofID := c.Param("id")
	if proofID == "" {
		respondBadRequest(c, "Proof ID is required")
		return
	}

	p, err := h.service.GetProof(c.Request.Context(), proofID)
	if err != nil {
		respondInternalError(c, err, "Failed to get proof", zap.String("proof_id", proofID))
		return
	}
	if p == nil {
		respondNotFound(c, "Proof not found")
		return
	}

	if !callerOwns(c, p.UserID) {
		// do not reveal that someone else's proof exists
		respondNotFound(c, "Proof not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapProofToDTO(p))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "proof-validator-api",
	})
}

type validatable interface {
	Validate() error
}

// bindRequest decodes and validates the JSON body, responding on failure
func bindRequest(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondValidationError(c, apierrors.NewValidationError(fmt.Sprintf("Invalid request body: %v", err)))
		return false
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return false
	}
	return true
}

// authorizeUser enforces that a JWT caller only submits for itself
func authorizeUser(c *gin.Context, userID string) bool {
	if callerOwns(c, userID) {
		return true
	}
	respondForbidden(c, "Forbidden", "token subject does not match userId")
	return false
}

// callerOwns reports whether the caller may act for userID.
// API key callers act for any user; JWT callers only for their non-empty subject.
func callerOwns(c *gin.Context, userID string) bool {
	if middleware.AuthType(c) != middleware.AUTH_TYPE_JWT {
		return true
	}
	subject, ok := middleware.AuthSubject(c)
	return ok && subject == userID
}
