package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogrepo "github.com/deskhivelabs/deskhive/internal/catalog/repository"
	"github.com/deskhivelabs/deskhive/internal/clock"
	"github.com/deskhivelabs/deskhive/internal/config"
	"github.com/deskhivelabs/deskhive/internal/metrics"
	"github.com/deskhivelabs/deskhive/internal/notification"
	"github.com/deskhivelabs/deskhive/internal/payment/adapters"
	"github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/payment/repository"
	promotiondomain "github.com/deskhivelabs/deskhive/internal/promotion/domain"
	subscriptiondomain "github.com/deskhivelabs/deskhive/internal/subscription/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   config.Config
	genID *snowflake.Node
	clock clock.Clock

	repo      *repository.Repository
	catalog   *catalogrepo.Repository
	registry  *adapters.Registry
	validator promotiondomain.Validator
	referrals promotiondomain.ReferralDiscounts
	rewards   promotiondomain.RewardIssuer
	activator subscriptiondomain.Activator
	receipts  *notification.ReceiptBuilder
	sender    notification.Sender
	metrics   *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      *repository.Repository
	Catalog   *catalogrepo.Repository
	Registry  *adapters.Registry
	Validator promotiondomain.Validator
	Referrals promotiondomain.ReferralDiscounts
	Rewards   promotiondomain.RewardIssuer
	Activator subscriptiondomain.Activator
	Receipts  *notification.ReceiptBuilder
	Sender    notification.Sender
	Metrics   *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		cfg:       p.Cfg,
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		catalog:   p.Catalog,
		registry:  p.Registry,
		validator: p.Validator,
		referrals: p.Referrals,
		rewards:   p.Rewards,
		activator: p.Activator,
		receipts:  p.Receipts,
		sender:    p.Sender,
		metrics:   p.Metrics,
	}
}

// Initiate records a payment attempt and, for gateway methods, opens the
// provider order the client SDK continues with. The row is written before
// the provider is called: money claims always have a local record first,
// and a provider failure leaves an orphaned pending row rather than a
// charge with no ledger entry.
func (s *Service) Initiate(ctx context.Context, input domain.InitiateInput) (*domain.InitiateResult, error) {
	purchase, err := s.resolvePurchase(ctx, input.Type, input.RelatedID)
	if err != nil {
		return nil, err
	}

	student, err := s.catalog.FindStudent(ctx, nil, input.StudentID)
	if err != nil {
		return nil, err
	}

	libraryID := purchase.libraryID
	if libraryID == 0 {
		libraryID = student.LibraryID
	}
	if libraryID == 0 {
		return nil, domain.ErrLibraryUnresolved
	}
	if input.LibraryID != 0 && input.LibraryID != libraryID {
		return nil, domain.ErrLibraryUnresolved
	}

	branchID := input.BranchID
	if branchID == 0 && student.BranchID != nil {
		branchID = *student.BranchID
	}
	if branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}

	if purchase.amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	priced, promotionID, err := s.price(ctx, input, purchase, libraryID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	payment := &domain.Payment{
		ID:             s.genID.Generate(),
		LibraryID:      libraryID,
		BranchID:       branchID,
		StudentID:      student.ID,
		Amount:         priced.FinalAmount,
		DiscountAmount: priced.DiscountAmount,
		Method:         input.Method,
		Type:           input.Type,
		Description:    priced.Description,
		RelatedID:      input.RelatedID,
		PromotionID:    promotionID,
		TransactionRef: input.TransactionRef,
		ProofURL:       input.ProofURL,
		CollectedBy:    input.CollectedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if input.Method.IsManual() {
		payment.Status = domain.PaymentStatusPendingVerification
		if err := s.repo.Insert(ctx, nil, payment); err != nil {
			return nil, fmt.Errorf("record manual payment: %w", err)
		}
		s.log.Info("manual payment recorded",
			zap.String("payment_id", payment.ID.String()),
			zap.String("method", string(payment.Method)),
			zap.Int64("amount", payment.Amount))
		return &domain.InitiateResult{Payment: payment}, nil
	}

	// Gateway path. Resolve the adapter before writing anything so an
	// unconfigured gateway is reported without leaving a row behind.
	adapter, err := s.registry.NewAdapter(string(input.Method), s.cfg)
	if err != nil {
		return nil, err
	}

	payment.Status = domain.PaymentStatusPending
	payment.GatewayProvider = adapter.Provider()
	payment.GatewayOrderID = "pending-" + uuid.NewString()
	if err := s.repo.Insert(ctx, nil, payment); err != nil {
		return nil, fmt.Errorf("record gateway payment: %w", err)
	}

	order, err := adapter.CreateOrder(ctx, domain.CreateOrderInput{
		Amount:    payment.Amount,
		Currency:  "INR",
		ReceiptID: payment.ID.String(),
		Notes: map[string]string{
			"payment_id": payment.ID.String(),
			"student_id": student.ID.String(),
		},
	})
	if err != nil {
		// The pending row stays for audit; it can never complete because
		// its order id is a local placeholder no verifier will match.
		s.log.Error("provider order creation failed, pending row orphaned",
			zap.String("payment_id", payment.ID.String()),
			zap.String("provider", payment.GatewayProvider),
			zap.Error(err))
		return nil, fmt.Errorf("create provider order: %w", err)
	}

	payment.GatewayOrderID = order.OrderID
	payment.UpdatedAt = s.clock.Now(ctx)
	if err := s.repo.Update(ctx, nil, payment); err != nil {
		return nil, fmt.Errorf("store provider order id: %w", err)
	}

	s.log.Info("gateway payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("provider", payment.GatewayProvider),
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", payment.Amount))
	return &domain.InitiateResult{
		Payment:        payment,
		GatewayOrderID: order.OrderID,
		Provider:       payment.GatewayProvider,
	}, nil
}

// VerifyGateway settles a pending gateway payment against the provider's
// word, never the client's. Completed payments short-circuit so retried
// verifications are harmless.
func (s *Service) VerifyGateway(ctx context.Context, libraryID, paymentID snowflake.ID, input domain.VerifyGatewayInput) (*domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, nil, libraryID, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status == domain.PaymentStatusCompleted {
		return payment, nil
	}
	if payment.Status == domain.PaymentStatusFailed {
		return nil, domain.ErrAlreadyFinalized
	}
	if payment.Method.IsManual() || payment.GatewayOrderID == "" {
		return nil, domain.ErrNotGatewayPayment
	}

	adapter, err := s.registry.NewAdapter(payment.GatewayProvider, s.cfg)
	if err != nil {
		return nil, err
	}

	verified, err := adapter.Reconcile(ctx, domain.ReconcileInput{
		OrderID:          payment.GatewayOrderID,
		ClaimedPaymentID: input.GatewayPaymentID,
		ClaimedSignature: input.GatewaySignature,
	})
	if err != nil {
		// Reconcile failure leaves the row pending. The client may retry;
		// nothing was settled.
		s.log.Warn("gateway reconcile failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("provider", payment.GatewayProvider),
			zap.Error(err))
		return nil, err
	}

	now := s.clock.Now(ctx)
	payment.Status = domain.PaymentStatusCompleted
	payment.GatewayPaymentID = verified.PaymentID
	payment.GatewaySignature = verified.Signature
	if payment.GatewaySignature == "" {
		payment.GatewaySignature = domain.SignatureVerifiedViaAPI
	}
	payment.VerifiedAt = &now
	payment.UpdatedAt = now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return fmt.Errorf("complete payment: %w", err)
		}
		return s.activator.ActivateTx(ctx, tx, payment.ID)
	})
	if err != nil {
		return nil, err
	}

	s.settled(ctx, payment, "gateway")
	return payment, nil
}

// VerifyManual applies a staff decision to a manual payment. Approval needs
// evidence; a second approval of an already-completed payment is a no-op.
func (s *Service) VerifyManual(ctx context.Context, libraryID, paymentID snowflake.ID, input domain.VerifyManualInput) (*domain.Payment, error) {
	if input.Action != domain.ManualActionApprove && input.Action != domain.ManualActionReject {
		return nil, domain.ErrInvalidAction
	}

	payment, err := s.repo.FindByID(ctx, nil, libraryID, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Method.IsManual() {
		return nil, domain.ErrNotManualPayment
	}

	switch input.Action {
	case domain.ManualActionApprove:
		if payment.Status == domain.PaymentStatusCompleted {
			return payment, nil
		}
		if payment.Status == domain.PaymentStatusFailed {
			return nil, domain.ErrAlreadyFinalized
		}
	case domain.ManualActionReject:
		if payment.Status == domain.PaymentStatusFailed {
			return payment, nil
		}
		if payment.Status == domain.PaymentStatusCompleted {
			return nil, domain.ErrAlreadyFinalized
		}
	}

	if input.TransactionRef != "" {
		payment.TransactionRef = input.TransactionRef
	}
	if input.ProofURL != "" {
		payment.ProofURL = input.ProofURL
	}

	now := s.clock.Now(ctx)
	verifierID := input.VerifierID
	payment.VerifiedBy = &verifierID
	payment.VerifierRole = input.VerifierRole
	payment.VerifiedAt = &now
	payment.UpdatedAt = now
	if input.CollectedBy != nil {
		payment.CollectedBy = input.CollectedBy
	} else if payment.CollectedBy == nil {
		payment.CollectedBy = &verifierID
	}

	if input.Action == domain.ManualActionReject {
		payment.Status = domain.PaymentStatusFailed
		if err := s.repo.Update(ctx, nil, payment); err != nil {
			return nil, fmt.Errorf("reject payment: %w", err)
		}
		s.log.Info("manual payment rejected",
			zap.String("payment_id", payment.ID.String()),
			zap.String("verified_by", verifierID.String()))
		return payment, nil
	}

	if !payment.HasProof() {
		return nil, domain.ErrMissingProof
	}

	payment.Status = domain.PaymentStatusCompleted
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return fmt.Errorf("approve payment: %w", err)
		}
		return s.activator.ActivateTx(ctx, tx, payment.ID)
	})
	if err != nil {
		return nil, err
	}

	s.settled(ctx, payment, "manual")
	return payment, nil
}

func (s *Service) Get(ctx context.Context, libraryID, paymentID snowflake.ID) (*domain.Payment, error) {
	return s.repo.FindByID(ctx, nil, libraryID, paymentID)
}

func (s *Service) List(ctx context.Context, libraryID snowflake.ID, filter domain.ListFilter) ([]domain.Payment, error) {
	return s.repo.List(ctx, nil, libraryID, repository.ListFilter{
		BranchID:  filter.BranchID,
		StudentID: filter.StudentID,
		Status:    filter.Status,
		Limit:     filter.Limit,
	})
}

type purchase struct {
	libraryID snowflake.ID
	amount    int64
	desc      string
}

func (s *Service) resolvePurchase(ctx context.Context, typ domain.PaymentType, relatedID snowflake.ID) (purchase, error) {
	switch typ {
	case domain.TypeSubscription:
		plan, err := s.catalog.FindPlan(ctx, nil, relatedID)
		if err != nil {
			return purchase{}, err
		}
		return purchase{libraryID: plan.LibraryID, amount: plan.Amount, desc: "Subscription: " + plan.Name}, nil
	case domain.TypeFee:
		fee, err := s.catalog.FindFee(ctx, nil, relatedID)
		if err != nil {
			return purchase{}, err
		}
		return purchase{libraryID: fee.LibraryID, amount: fee.Amount, desc: "Fee: " + fee.Name}, nil
	default:
		return purchase{}, domain.ErrInvalidType
	}
}

// price applies at most one discount: an explicit coupon when supplied,
// otherwise the student's pending referral discount if any. A bad coupon
// fails the whole initiation; a referral lookup failure only loses the
// discount.
func (s *Service) price(ctx context.Context, input domain.InitiateInput, p purchase, libraryID snowflake.ID) (promotiondomain.DiscountResult, *snowflake.ID, error) {
	if input.CouponCode != "" {
		validateIn := promotiondomain.ValidateInput{
			Code:      input.CouponCode,
			Amount:    p.amount,
			StudentID: input.StudentID,
		}
		if input.BranchID != 0 {
			branchID := input.BranchID
			validateIn.BranchID = &branchID
		}
		if input.Type == domain.TypeSubscription {
			planID := input.RelatedID
			validateIn.PlanID = &planID
		}
		res, err := s.validator.Validate(ctx, validateIn)
		if err != nil {
			return promotiondomain.DiscountResult{}, nil, err
		}
		priced := promotiondomain.ComputeAmount(p.amount, p.desc, res.Promotion, nil)
		promoID := res.Promotion.ID
		return priced, &promoID, nil
	}

	var referral *promotiondomain.ReferralDiscount
	if input.Type == domain.TypeSubscription {
		var err error
		referral, err = s.referrals.PendingDiscount(ctx, libraryID, input.StudentID)
		if err != nil {
			s.log.Warn("referral discount lookup failed",
				zap.String("student_id", input.StudentID.String()),
				zap.Error(err))
			referral = nil
		}
	}
	return promotiondomain.ComputeAmount(p.amount, p.desc, nil, referral), nil, nil
}

// settled runs the side effects of a completed payment after the settling
// transaction committed. None of them may fail the verification: the money
// already moved.
func (s *Service) settled(ctx context.Context, payment *domain.Payment, path string) {
	if s.metrics != nil {
		s.metrics.PaymentsCompleted.WithLabelValues(string(payment.Method), path).Inc()
	}

	if err := s.rewards.ProcessReferralRewards(ctx, payment.ID); err != nil {
		s.log.Warn("referral reward processing failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
	}

	// Reload so the receipt reflects the activator's subscription backfill.
	fresh, err := s.repo.FindByID(ctx, nil, payment.LibraryID, payment.ID)
	if err != nil {
		fresh = payment
	}
	receipt, err := s.receipts.Build(ctx, fresh)
	if err != nil {
		s.log.Warn("receipt build failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.sender.SendReceiptEmail(ctx, receipt); err != nil {
		s.log.Warn("receipt email failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
	}

	s.log.Info("payment settled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("method", string(payment.Method)),
		zap.String("path", path),
		zap.Int64("amount", payment.Amount))
}
