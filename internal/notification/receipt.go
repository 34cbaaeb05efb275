package notification

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	catalogrepo "github.com/deskhivelabs/deskhive/internal/catalog/repository"
	"github.com/deskhivelabs/deskhive/internal/clock"
	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
)

// ReceiptBuilder enriches a completed payment into the flat payload the
// mail collaborator accepts, including a rendered PDF receipt.
type ReceiptBuilder struct {
	log     *zap.Logger
	clock   clock.Clock
	catalog *catalogrepo.Repository
}

type ReceiptBuilderParams struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Catalog *catalogrepo.Repository
}

func NewReceiptBuilder(p ReceiptBuilderParams) *ReceiptBuilder {
	return &ReceiptBuilder{
		log:     p.Log.Named("notification.receipt"),
		clock:   p.Clock,
		catalog: p.Catalog,
	}
}

func (b *ReceiptBuilder) Build(ctx context.Context, payment *paymentdomain.Payment) (ReceiptPayload, error) {
	student, err := b.catalog.FindStudent(ctx, nil, payment.StudentID)
	if err != nil {
		return ReceiptPayload{}, err
	}
	library, err := b.catalog.FindLibrary(ctx, nil, payment.LibraryID)
	if err != nil {
		return ReceiptPayload{}, err
	}
	branch, err := b.catalog.FindBranch(ctx, nil, payment.BranchID)
	if err != nil {
		return ReceiptPayload{}, err
	}

	paidAt := payment.UpdatedAt
	if payment.VerifiedAt != nil {
		paidAt = *payment.VerifiedAt
	}

	payload := ReceiptPayload{
		ReceiptNumber:  ulid.Make().String(),
		StudentName:    student.Name,
		StudentEmail:   student.Email,
		LibraryName:    library.Name,
		BranchName:     branch.Name,
		Description:    payment.Description,
		Amount:         payment.Amount,
		DiscountAmount: payment.DiscountAmount,
		Method:         string(payment.Method),
		PaidAt:         paidAt,
		Items: []ReceiptItem{
			{Label: payment.Description, Amount: payment.Amount + payment.DiscountAmount},
		},
	}
	if payment.DiscountAmount > 0 {
		payload.Items = append(payload.Items, ReceiptItem{Label: "Discount", Amount: -payment.DiscountAmount})
	}

	pdf, err := renderReceiptPDF(payload)
	if err != nil {
		// The email still carries the breakdown; a render failure only
		// costs the attachment.
		b.log.Warn("receipt pdf render failed", zap.Error(err))
	} else {
		payload.PDF = pdf
	}
	return payload, nil
}

func renderReceiptPDF(p ReceiptPayload) ([]byte, error) {
	m := maroto.New(config.NewBuilder().Build())

	m.AddRow(12, text.NewCol(12, p.LibraryName, props.Text{
		Style: fontstyle.Bold,
		Align: align.Center,
		Size:  14,
	}))
	m.AddRow(8, text.NewCol(12, "Payment Receipt "+p.ReceiptNumber, props.Text{Align: align.Center}))
	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Branch: %s", p.BranchName)))
	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Student: %s", p.StudentName)))
	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Date: %s", p.PaidAt.Format("02 Jan 2006"))))

	for _, item := range p.Items {
		m.AddRow(6,
			text.NewCol(8, item.Label),
			text.NewCol(4, formatAmount(item.Amount), props.Text{Align: align.Right}),
		)
	}
	m.AddRow(8,
		text.NewCol(8, "Total Paid", props.Text{Style: fontstyle.Bold}),
		text.NewCol(4, formatAmount(p.Amount), props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}
