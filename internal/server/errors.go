package server

import (
	"errors"
	"net/http"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	settingsdomain "github.com/alprail/membership/internal/settings/domain"
	signupdomain "github.com/alprail/membership/internal/signup/domain"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

// ErrorHandlingMiddleware converts errors attached to the context into
// the response envelope. Handlers call AbortWithError and return.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, gin.H{
			"success": false,
			"message": message,
		})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

var notFoundErrors = []error{
	organizationdomain.ErrOrganizationNotFound,
	memberdomain.ErrMemberNotFound,
	plandomain.ErrPlanNotFound,
	subscriptiondomain.ErrSubscriptionNotFound,
	subscriptiondomain.ErrPlanNotFound,
	invoicedomain.ErrInvoiceNotFound,
	paymentdomain.ErrPaymentNotFound,
	signupdomain.ErrPlanNotFound,
}

var conflictErrors = []error{
	memberdomain.ErrEmailTaken,
	plandomain.ErrPlanNameTaken,
	signupdomain.ErrEmailTaken,
	invoicedomain.ErrAlreadyPaid,
	paymentdomain.ErrAlreadyConfirmed,
	subscriptiondomain.ErrTransitionNotAllowed,
	invoicedomain.ErrTransitionNotAllowed,
}

var badRequestErrors = []error{
	organizationdomain.ErrInvalidOrganization,
	organizationdomain.ErrInvalidPageToken,
	memberdomain.ErrInvalidMember,
	memberdomain.ErrInvalidOrganization,
	memberdomain.ErrInvalidPageToken,
	plandomain.ErrInvalidPlan,
	plandomain.ErrInvalidDuration,
	subscriptiondomain.ErrInvalidSubscription,
	subscriptiondomain.ErrInvalidOrganization,
	subscriptiondomain.ErrInvalidStatus,
	subscriptiondomain.ErrInvalidPageToken,
	invoicedomain.ErrInvalidInvoice,
	invoicedomain.ErrInvalidOrganization,
	invoicedomain.ErrInvalidSubscription,
	invoicedomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidPageToken,
	paymentdomain.ErrInvalidPayment,
	paymentdomain.ErrInvalidOrganization,
	paymentdomain.ErrInvalidPlan,
	paymentdomain.ErrInvalidStatus,
	paymentdomain.ErrInvalidPageToken,
	activitylogdomain.ErrInvalidAction,
	activitylogdomain.ErrInvalidTimeRange,
	activitylogdomain.ErrInvalidPageToken,
	activitylogdomain.ErrInvalidSubject,
	settingsdomain.ErrUnknownKey,
	signupdomain.ErrInvalidRequest,
}

var unprocessableErrors = []error{
	paymentdomain.ErrPaymentNotCompleted,
	paymentdomain.ErrProviderDeclined,
}

var forbiddenErrors = []error{
	paymentdomain.ErrProviderNotFound,
	paymentdomain.ErrInvalidConfig,
}

func mapError(err error) (int, string) {
	switch {
	case matchAny(err, notFoundErrors):
		return http.StatusNotFound, err.Error()
	case matchAny(err, conflictErrors):
		return http.StatusUnprocessableEntity, err.Error()
	case matchAny(err, unprocessableErrors):
		return http.StatusUnprocessableEntity, err.Error()
	case matchAny(err, forbiddenErrors):
		return http.StatusForbidden, err.Error()
	case matchAny(err, badRequestErrors):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func matchAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
