package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/deskhivelabs/deskhive/internal/catalog/domain"
	catalogrepo "github.com/deskhivelabs/deskhive/internal/catalog/repository"
	"github.com/deskhivelabs/deskhive/internal/clock"
	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/domain"
	"github.com/deskhivelabs/deskhive/internal/promotion/repository"
)

type promoFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	now     time.Time
	repo    *repository.Repository
	catalog *catalogrepo.Repository
}

func newPromoFixture(t *testing.T) *promoFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Library{},
		&catalogdomain.Student{},
		&paymentdomain.Payment{},
		&domain.Promotion{},
		&domain.Referral{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	return &promoFixture{
		db:      db,
		node:    node,
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		repo:    repository.Provide(db),
		catalog: catalogrepo.Provide(db),
	}
}

func (f *promoFixture) validator() domain.Validator {
	return NewValidator(ValidatorParams{
		DB:    f.db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed{T: f.now},
		Repo:  f.repo,
	})
}

func (f *promoFixture) createPromotion(t *testing.T, mutate func(*domain.Promotion)) *domain.Promotion {
	t.Helper()
	promo := &domain.Promotion{
		ID:        f.node.Generate(),
		LibraryID: f.node.Generate(),
		Code:      "WELCOME10",
		Type:      domain.PromotionTypePercentage,
		Value:     10,
		IsActive:  true,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	if mutate != nil {
		mutate(promo)
	}
	require.NoError(t, f.db.Create(promo).Error)
	return promo
}

func (f *promoFixture) completedRedemption(t *testing.T, promoID, studentID snowflake.ID) {
	t.Helper()
	p := paymentdomain.Payment{
		ID:          f.node.Generate(),
		LibraryID:   f.node.Generate(),
		BranchID:    f.node.Generate(),
		StudentID:   studentID,
		Amount:      1000,
		Method:      paymentdomain.MethodFrontDesk,
		Status:      paymentdomain.PaymentStatusCompleted,
		Type:        paymentdomain.TypeSubscription,
		RelatedID:   f.node.Generate(),
		PromotionID: &promoID,
		CreatedAt:   f.now,
		UpdatedAt:   f.now,
	}
	require.NoError(t, f.db.Create(&p).Error)
}

func TestValidateUnknownCode(t *testing.T) {
	f := newPromoFixture(t)
	_, err := f.validator().Validate(context.Background(), domain.ValidateInput{Code: "NOPE", Amount: 1000})
	require.ErrorIs(t, err, domain.ErrInvalidCouponCode)
}

func TestValidateInactive(t *testing.T) {
	f := newPromoFixture(t)
	f.createPromotion(t, func(p *domain.Promotion) { p.IsActive = false })
	_, err := f.validator().Validate(context.Background(), domain.ValidateInput{Code: "WELCOME10", Amount: 1000})
	require.ErrorIs(t, err, domain.ErrCouponInactive)
}

func TestValidateWindow(t *testing.T) {
	f := newPromoFixture(t)

	future := f.now.AddDate(0, 0, 7)
	f.createPromotion(t, func(p *domain.Promotion) {
		p.Code = "SOON"
		p.StartDate = &future
	})
	_, err := f.validator().Validate(context.Background(), domain.ValidateInput{Code: "SOON", Amount: 1000})
	require.ErrorIs(t, err, domain.ErrCouponNotStarted)

	past := f.now.AddDate(0, 0, -1)
	f.createPromotion(t, func(p *domain.Promotion) {
		p.Code = "GONE"
		p.EndDate = &past
	})
	_, err = f.validator().Validate(context.Background(), domain.ValidateInput{Code: "GONE", Amount: 1000})
	require.ErrorIs(t, err, domain.ErrCouponExpired)
}

func TestValidateScopeRestrictions(t *testing.T) {
	f := newPromoFixture(t)

	couponBranch := f.node.Generate()
	otherBranch := f.node.Generate()
	f.createPromotion(t, func(p *domain.Promotion) { p.BranchID = &couponBranch })

	_, err := f.validator().Validate(context.Background(), domain.ValidateInput{
		Code: "WELCOME10", Amount: 1000, BranchID: &otherBranch,
	})
	require.ErrorIs(t, err, domain.ErrCouponBranchScope)

	// Matching branch passes.
	res, err := f.validator().Validate(context.Background(), domain.ValidateInput{
		Code: "WELCOME10", Amount: 1000, BranchID: &couponBranch,
	})
	require.NoError(t, err)
	require.EqualValues(t, 100, res.Discount)

	couponPlan := f.node.Generate()
	otherPlan := f.node.Generate()
	f.createPromotion(t, func(p *domain.Promotion) {
		p.Code = "PLANONLY"
		p.PlanID = &couponPlan
	})
	_, err = f.validator().Validate(context.Background(), domain.ValidateInput{
		Code: "PLANONLY", Amount: 1000, PlanID: &otherPlan,
	})
	require.ErrorIs(t, err, domain.ErrCouponPlanScope)
}

func TestValidateUsageLimitBoundary(t *testing.T) {
	f := newPromoFixture(t)

	limit := 1
	promo := f.createPromotion(t, func(p *domain.Promotion) { p.UsageLimit = &limit })

	res, err := f.validator().Validate(context.Background(), domain.ValidateInput{Code: "WELCOME10", Amount: 1000})
	require.NoError(t, err)
	require.EqualValues(t, 100, res.Discount)

	f.completedRedemption(t, promo.ID, f.node.Generate())

	_, err = f.validator().Validate(context.Background(), domain.ValidateInput{Code: "WELCOME10", Amount: 1000})
	require.ErrorIs(t, err, domain.ErrCouponUsageLimit)
}

func TestValidatePerUserLimit(t *testing.T) {
	f := newPromoFixture(t)

	perUser := 1
	promo := f.createPromotion(t, func(p *domain.Promotion) { p.PerUserLimit = &perUser })

	student := f.node.Generate()
	f.completedRedemption(t, promo.ID, student)

	_, err := f.validator().Validate(context.Background(), domain.ValidateInput{
		Code: "WELCOME10", Amount: 1000, StudentID: student,
	})
	require.ErrorIs(t, err, domain.ErrCouponPerUserLimit)

	// A different student is unaffected.
	res, err := f.validator().Validate(context.Background(), domain.ValidateInput{
		Code: "WELCOME10", Amount: 1000, StudentID: f.node.Generate(),
	})
	require.NoError(t, err)
	require.EqualValues(t, 100, res.Discount)
}

func TestValidateMinOrderBoundary(t *testing.T) {
	f := newPromoFixture(t)

	minOrder := int64(500)
	f.createPromotion(t, func(p *domain.Promotion) { p.MinOrderValue = &minOrder })

	_, err := f.validator().Validate(context.Background(), domain.ValidateInput{Code: "WELCOME10", Amount: 499})
	require.ErrorIs(t, err, domain.ErrCouponMinOrder)

	res, err := f.validator().Validate(context.Background(), domain.ValidateInput{Code: "WELCOME10", Amount: 500})
	require.NoError(t, err)
	require.EqualValues(t, 50, res.Discount)
	require.EqualValues(t, 450, res.FinalAmount)
}
