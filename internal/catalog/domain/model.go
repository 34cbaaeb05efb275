package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrLibraryNotFound = errors.New("library not found")
	ErrBranchNotFound  = errors.New("branch not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrFeeNotFound     = errors.New("fee not found")
	ErrStudentNotFound = errors.New("student not found")
)

// Library is the tenant. Settings carries free-form per-tenant configuration,
// including the referral program block.
type Library struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Settings  datatypes.JSON `json:"settings" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null"`
}

func (Library) TableName() string { return "libraries" }

type Branch struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID snowflake.ID `json:"library_id" gorm:"not null;index"`
	Name      string       `json:"name" gorm:"type:varchar(255);not null"`
	Address   string       `json:"address" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Branch) TableName() string { return "branches" }

const (
	DurationUnitMonths = "months"
	DurationUnitDays   = "days"
)

type Plan struct {
	ID           snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID    snowflake.ID  `json:"library_id" gorm:"not null;index"`
	BranchID     *snowflake.ID `json:"branch_id" gorm:"type:bigint;index"`
	Name         string        `json:"name" gorm:"type:varchar(255);not null"`
	Amount       int64         `json:"amount" gorm:"not null"` // minor units
	Duration     int           `json:"duration" gorm:"not null"`
	DurationUnit string        `json:"duration_unit" gorm:"type:varchar(10);not null;default:'months'"`
	HasLocker    bool          `json:"has_locker" gorm:"default:false"`
	CreatedAt    time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"not null"`
}

func (Plan) TableName() string { return "plans" }

// PeriodEnd computes the subscription end date for a grant starting at start.
// Months add calendar months, days add flat days.
func (p Plan) PeriodEnd(start time.Time) time.Time {
	if p.DurationUnit == DurationUnitDays {
		return start.AddDate(0, 0, p.Duration)
	}
	return start.AddDate(0, p.Duration, 0)
}

// Fee is a one-off charge (locker, fine, registration) distinct from plans.
type Fee struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID snowflake.ID  `json:"library_id" gorm:"not null;index"`
	BranchID  *snowflake.ID `json:"branch_id" gorm:"type:bigint;index"`
	Name      string        `json:"name" gorm:"type:varchar(255);not null"`
	Amount    int64         `json:"amount" gorm:"not null"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"not null"`
}

func (Fee) TableName() string { return "fees" }

type Student struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	LibraryID snowflake.ID  `json:"library_id" gorm:"not null;index"`
	BranchID  *snowflake.ID `json:"branch_id" gorm:"type:bigint;index"`
	Name      string        `json:"name" gorm:"type:varchar(255);not null"`
	Email     string        `json:"email" gorm:"type:varchar(255);index"`
	Phone     string        `json:"phone" gorm:"type:varchar(32)"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"not null"`
}

func (Student) TableName() string { return "students" }
