package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/deskhivelabs/deskhive/internal/payment/domain"
)

type initiatePaymentRequest struct {
	StudentID      string `json:"student_id" binding:"required"`
	BranchID       string `json:"branch_id"`
	Type           string `json:"type" binding:"required"`
	RelatedID      string `json:"related_id" binding:"required"`
	Method         string `json:"method" binding:"required"`
	CouponCode     string `json:"coupon_code"`
	TransactionRef string `json:"transaction_ref"`
	ProofURL       string `json:"proof_url"`
}

// InitiatePayment
// POST /api/payments/initiate
func (s *Server) InitiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	studentID, err := snowflake.ParseString(req.StudentID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	relatedID, err := snowflake.ParseString(req.RelatedID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	var branchID snowflake.ID
	if req.BranchID != "" {
		if branchID, err = snowflake.ParseString(req.BranchID); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	principalID, _ := principalFromContext(c)
	input := domain.InitiateInput{
		LibraryID:      libraryIDFromContext(c),
		StudentID:      studentID,
		BranchID:       branchID,
		Type:           domain.PaymentType(req.Type),
		RelatedID:      relatedID,
		Method:         domain.PaymentMethod(req.Method),
		CouponCode:     req.CouponCode,
		TransactionRef: req.TransactionRef,
		ProofURL:       req.ProofURL,
	}
	if domain.PaymentMethod(req.Method).IsManual() && principalID != studentID {
		input.CollectedBy = &principalID
	}

	res, err := s.payments.Initiate(c.Request.Context(), input)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{"payment": res.Payment}
	if res.GatewayOrderID != "" {
		body["order_id"] = res.GatewayOrderID
		body["provider"] = res.Provider
	}
	respondOK(c, body)
}

type verifyGatewayRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// VerifyGatewayPayment
// POST /api/payments/:id/verify
func (s *Server) VerifyGatewayPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	var req verifyGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.payments.VerifyGateway(c.Request.Context(), libraryIDFromContext(c), paymentID, domain.VerifyGatewayInput{
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, gin.H{"payment": payment})
}

type verifyManualRequest struct {
	Action         string `json:"action" binding:"required"`
	CollectedBy    string `json:"collected_by"`
	TransactionRef string `json:"transaction_ref"`
	ProofURL       string `json:"proof_url"`
}

// VerifyManualPayment
// POST /api/payments/:id/verify-manual
func (s *Server) VerifyManualPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	var req verifyManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	principalID, role := principalFromContext(c)
	input := domain.VerifyManualInput{
		Action:         domain.ManualAction(req.Action),
		VerifierID:     principalID,
		VerifierRole:   role,
		TransactionRef: req.TransactionRef,
		ProofURL:       req.ProofURL,
	}
	if req.CollectedBy != "" {
		collectedBy, err := snowflake.ParseString(req.CollectedBy)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		input.CollectedBy = &collectedBy
	}

	payment, err := s.payments.VerifyManual(c.Request.Context(), libraryIDFromContext(c), paymentID, input)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, gin.H{"payment": payment})
}

// GetPayment
// GET /api/payments/:id
func (s *Server) GetPayment(c *gin.Context) {
	paymentID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	payment, err := s.payments.Get(c.Request.Context(), libraryIDFromContext(c), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, gin.H{"payment": payment})
}

// ListPayments
// GET /api/payments
func (s *Server) ListPayments(c *gin.Context) {
	var filter domain.ListFilter
	if v := c.Query("branch_id"); v != "" {
		id, err := snowflake.ParseString(v)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.BranchID = id
	}
	if v := c.Query("student_id"); v != "" {
		id, err := snowflake.ParseString(v)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.StudentID = id
	}
	filter.Status = domain.PaymentStatus(c.Query("status"))

	payments, err := s.payments.List(c.Request.Context(), libraryIDFromContext(c), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, gin.H{"payments": payments})
}
