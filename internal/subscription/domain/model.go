package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidPeriod        = errors.New("subscription end date must be after start date")
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

// StudentSubscription is one purchased occupancy grant: plan + optional seat
// + branch + time window. At most one grant is live per student at a given
// instant in normal operation, but queued future grants (next plan already
// purchased) are tolerated; queue order is by start date.
type StudentSubscription struct {
	ID        snowflake.ID       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID snowflake.ID       `json:"library_id" gorm:"not null;index"`
	StudentID snowflake.ID       `json:"student_id" gorm:"not null;index"`
	BranchID  snowflake.ID       `json:"branch_id" gorm:"not null;index"`
	PlanID    snowflake.ID       `json:"plan_id" gorm:"not null"`
	SeatID    *snowflake.ID      `json:"seat_id" gorm:"type:bigint"`
	StartDate time.Time          `json:"start_date" gorm:"not null"`
	EndDate   time.Time          `json:"end_date" gorm:"not null"`
	Status    SubscriptionStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Amount    int64              `json:"amount" gorm:"not null"`
	HasLocker bool               `json:"has_locker" gorm:"default:false"`
	CreatedAt time.Time          `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time          `json:"updated_at" gorm:"not null"`
}

func (StudentSubscription) TableName() string { return "student_subscriptions" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *StudentSubscription) error
	Update(ctx context.Context, db *gorm.DB, sub *StudentSubscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*StudentSubscription, error)
	FindPending(ctx context.Context, db *gorm.DB, studentID, branchID snowflake.ID) (*StudentSubscription, error)
	FindLatestByStudent(ctx context.Context, db *gorm.DB, studentID snowflake.ID) (*StudentSubscription, error)
	SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status SubscriptionStatus) error
}

// Activator turns a completed subscription payment into an active grant.
// Safe to invoke more than once for the same payment.
type Activator interface {
	Activate(ctx context.Context, paymentID snowflake.ID) error
	ActivateTx(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) error
}
