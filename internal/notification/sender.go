package notification

import (
	"context"
	"time"
)

// ReceiptItem is one line on the receipt breakdown.
type ReceiptItem struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type ReceiptPayload struct {
	ReceiptNumber  string        `json:"receipt_number"`
	StudentName    string        `json:"student_name"`
	StudentEmail   string        `json:"student_email"`
	LibraryName    string        `json:"library_name"`
	BranchName     string        `json:"branch_name"`
	Description    string        `json:"description"`
	Amount         int64         `json:"amount"`
	DiscountAmount int64         `json:"discount_amount"`
	Method         string        `json:"method"`
	PaidAt         time.Time     `json:"paid_at"`
	Items          []ReceiptItem `json:"items"`
	PDF            []byte        `json:"-"`
}

type WelcomePayload struct {
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	LibraryName  string `json:"library_name"`
}

type PasswordResetPayload struct {
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}

// Sender is the email collaborator boundary. Implementations live outside
// this service; callers treat every error as non-fatal.
type Sender interface {
	SendReceiptEmail(ctx context.Context, payload ReceiptPayload) error
	SendWelcomeEmail(ctx context.Context, payload WelcomePayload) error
	SendPasswordResetEmail(ctx context.Context, payload PasswordResetPayload) error
}
