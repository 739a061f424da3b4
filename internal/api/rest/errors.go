package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/api/shared/dto"
	"github.com/swagly/proof-validator/internal/api/shared/errors"
	"github.com/swagly/proof-validator/internal/logger"
	"github.com/swagly/proof-validator/internal/proof"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, errors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, errors.NewNotFoundError(message, details...))
}

// respondForbidden responds with a forbidden error
func respondForbidden(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusForbidden, errors.NewForbiddenError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		c.JSON(http.StatusBadRequest, apiErr)
		return
	}
	c.JSON(http.StatusBadRequest, errors.NewValidationError(err.Error()))
}

// respondInternalError logs err and responds with an internal server error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, fields...)
	c.JSON(http.StatusInternalServerError, errors.NewInternalError(message))
}

// statusForOutcome maps a proof outcome to its HTTP status
func statusForOutcome(outcome proof.Outcome) int {
	switch outcome {
	case proof.OutcomeApproved, proof.OutcomePending:
		return http.StatusOK
	case proof.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case proof.OutcomeInvalidInput:
		return http.StatusBadRequest
	case proof.OutcomeNotFound:
		return http.StatusNotFound
	case proof.OutcomeConflict:
		return http.StatusConflict
	case proof.OutcomeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondResult writes a submission or review result
func respondResult(c *gin.Context, result *proof.Result) {
	c.JSON(statusForOutcome(result.Outcome), dto.MapResultToDTO(result))
}
