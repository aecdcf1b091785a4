package orderserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/Apurer/ruchi-orders/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/ruchi-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/ruchi-orders/internal/domains/orders/ports"
	apierrors "github.com/Apurer/ruchi-orders/internal/shared/errors"
)

var orderResponder = apierrors.NewChainedResponder("", orderProblem)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondOrderServiceError renders service failures; unknown errors become
// a 500 carrying fallbackDetail rather than the store's message.
func respondOrderServiceError(c *gin.Context, err error, fallbackDetail string) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	if errors.Is(err, ordersports.ErrNotFound) {
		respondProblem(c, apierrors.NewNotFoundProblem("order", c.Param("id")).
			WithDetail(messageOrderNotFound).
			WithInstance(c.Request.URL.Path))
		return
	}
	orderResponder.RespondError(c, err, fallbackDetail)
}

func orderProblem(err error) (apierrors.ProblemDetail, bool) {
	var verr *ordersdomain.ValidationError
	switch {
	case errors.As(err, &verr):
		return apierrors.NewValidationProblem(verr.Error(), verr.Fields), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
