package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/deskhivelabs/deskhive/internal/promotion/domain"
)

type validateCouponRequest struct {
	Code      string `json:"code" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	StudentID string `json:"student_id"`
	BranchID  string `json:"branch_id"`
	PlanID    string `json:"plan_id"`
}

// ValidateCoupon
// POST /api/coupons/validate
func (s *Server) ValidateCoupon(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	// A member checking their own coupon omits student_id; staff validating
	// on someone's behalf pass it explicitly.
	studentID, _ := principalFromContext(c)
	if req.StudentID != "" {
		id, err := snowflake.ParseString(req.StudentID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		studentID = id
	}
	input := domain.ValidateInput{
		Code:      req.Code,
		Amount:    req.Amount,
		StudentID: studentID,
	}
	if req.BranchID != "" {
		id, err := snowflake.ParseString(req.BranchID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		input.BranchID = &id
	}
	if req.PlanID != "" {
		id, err := snowflake.ParseString(req.PlanID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		input.PlanID = &id
	}

	res, err := s.coupons.Validate(c.Request.Context(), input)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondOK(c, gin.H{
		"discount":     res.Discount,
		"final_amount": res.FinalAmount,
		"coupon_code":  res.Promotion.Code,
	})
}
