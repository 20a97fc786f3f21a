package fulfillmentserver

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/application"
	fulfillmentports "github.com/Apurer/warehouse-fulfillment/internal/domains/fulfillment/ports"
	apierrors "github.com/Apurer/warehouse-fulfillment/internal/shared/errors"
)

var responder = apierrors.NewResponder("", fulfillmentProblem)

// respondBadRequest reports a malformed request, listing failed fields when binding validation rejected it.
func respondBadRequest(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		responder.ValidationFailed(c, fields)
		return
	}
	responder.BadRequest(c, err.Error())
}

// respondServiceError converts application errors into RFC 7807 responses.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func fulfillmentProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, fulfillmentports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrProviderUnavailable):
		return apierrors.ErrBadGateway.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
