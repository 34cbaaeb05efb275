package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	promotiondomain "github.com/deskhivelabs/deskhive/internal/promotion/domain"
)

// Responses always carry a success flag; failures add a user-facing error
// message and a machine-readable code. Clients switch on the code, people
// read the message.
func respondOK(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

type apiError struct {
	status  int
	code    string
	message string
}

func (e apiError) Error() string { return e.message }

var (
	ErrUnauthorized   = apiError{http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"}
	ErrInvalidRequest = apiError{http.StatusBadRequest, "INVALID_REQUEST", "invalid request"}
)

// errorTable maps domain sentinels to transport semantics. Coupon
// rejections share one code: the client renders the message as-is next to
// the coupon field.
var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{paymentdomain.ErrPaymentNotFound, http.StatusNotFound, "PAYMENT_NOT_FOUND"},
	{paymentdomain.ErrGatewayNotConfigured, http.StatusConflict, "GATEWAY_NOT_CONFIGURED"},
	{paymentdomain.ErrProviderNotFound, http.StatusBadRequest, "UNKNOWN_PROVIDER"},
	{paymentdomain.ErrInvalidBranch, http.StatusBadRequest, "INVALID_BRANCH"},
	{paymentdomain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{paymentdomain.ErrInvalidType, http.StatusBadRequest, "INVALID_TYPE"},
	{paymentdomain.ErrLibraryUnresolved, http.StatusBadRequest, "LIBRARY_UNRESOLVED"},
	{paymentdomain.ErrInvalidSignature, http.StatusBadRequest, "VERIFICATION_FAILED"},
	{paymentdomain.ErrVerificationFailed, http.StatusBadRequest, "VERIFICATION_FAILED"},
	{paymentdomain.ErrNotGatewayPayment, http.StatusBadRequest, "NOT_GATEWAY_PAYMENT"},
	{paymentdomain.ErrNotManualPayment, http.StatusBadRequest, "NOT_MANUAL_PAYMENT"},
	{paymentdomain.ErrMissingProof, http.StatusBadRequest, "MISSING_PROOF"},
	{paymentdomain.ErrInvalidAction, http.StatusBadRequest, "INVALID_ACTION"},
	{paymentdomain.ErrAlreadyFinalized, http.StatusConflict, "ALREADY_FINALIZED"},
	{promotiondomain.ErrInvalidCouponCode, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponInactive, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponNotStarted, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponExpired, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponBranchScope, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponPlanScope, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponUsageLimit, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponPerUserLimit, http.StatusBadRequest, "INVALID_COUPON"},
	{promotiondomain.ErrCouponMinOrder, http.StatusBadRequest, "INVALID_COUPON"},
}

func AbortWithError(c *gin.Context, err error) {
	var api apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.status, gin.H{"success": false, "error": api.message, "code": api.code})
		return
	}
	for _, entry := range errorTable {
		if errors.Is(err, entry.err) {
			c.AbortWithStatusJSON(entry.status, gin.H{"success": false, "error": entry.err.Error(), "code": entry.code})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false, "error": "internal error", "code": "INTERNAL",
	})
}
