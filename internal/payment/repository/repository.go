package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/deskhivelabs/deskhive/internal/payment/domain"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// handle prefers an explicit transaction handle over the default pool, so
// callers inside db.Transaction closures can pass tx through.
func (r *Repository) handle(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return r.handle(db).WithContext(ctx).Create(payment).Error
}

func (r *Repository) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return r.handle(db).WithContext(ctx).Save(payment).Error
}

func (r *Repository) FindByID(ctx context.Context, db *gorm.DB, libraryID, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.handle(db).WithContext(ctx).
		Where("library_id = ?", libraryID).
		First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) FindByGatewayOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.handle(db).WithContext(ctx).
		Where("gateway_order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// ListFilter narrows List; zero values mean "any".
type ListFilter struct {
	BranchID  snowflake.ID
	StudentID snowflake.ID
	Status    domain.PaymentStatus
	Limit     int
}

func (r *Repository) List(ctx context.Context, db *gorm.DB, libraryID snowflake.ID, filter ListFilter) ([]domain.Payment, error) {
	q := r.handle(db).WithContext(ctx).
		Where("library_id = ?", libraryID).
		Order("created_at DESC")
	if filter.BranchID != 0 {
		q = q.Where("branch_id = ?", filter.BranchID)
	}
	if filter.StudentID != 0 {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var payments []domain.Payment
	if err := q.Limit(limit).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
