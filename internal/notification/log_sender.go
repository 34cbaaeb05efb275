package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSender records outbound mail instead of dispatching it. It stands in
// for the real mail collaborator in deployments without one configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) Sender {
	return &LogSender{log: log.Named("notification")}
}

func (s *LogSender) SendReceiptEmail(ctx context.Context, payload ReceiptPayload) error {
	s.log.Info("receipt email",
		zap.String("receipt_number", payload.ReceiptNumber),
		zap.String("student", payload.StudentEmail),
		zap.Int64("amount", payload.Amount),
		zap.Int("pdf_bytes", len(payload.PDF)))
	return nil
}

func (s *LogSender) SendWelcomeEmail(ctx context.Context, payload WelcomePayload) error {
	s.log.Info("welcome email", zap.String("student", payload.StudentEmail))
	return nil
}

func (s *LogSender) SendPasswordResetEmail(ctx context.Context, payload PasswordResetPayload) error {
	s.log.Info("password reset email", zap.String("email", payload.Email))
	return nil
}
