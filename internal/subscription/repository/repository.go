package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/deskhivelabs/deskhive/internal/subscription/domain"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) handle(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.StudentSubscription) error {
	return r.handle(db).WithContext(ctx).Create(sub).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *domain.StudentSubscription) error {
	return r.handle(db).WithContext(ctx).Save(sub).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.StudentSubscription, error) {
	var sub domain.StudentSubscription
	if err := r.handle(db).WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) FindPending(ctx context.Context, db *gorm.DB, studentID, branchID snowflake.ID) (*domain.StudentSubscription, error) {
	var sub domain.StudentSubscription
	err := r.handle(db).WithContext(ctx).
		Where("student_id = ? AND branch_id = ? AND status = ?", studentID, branchID, domain.SubscriptionStatusPending).
		Order("created_at ASC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) FindLatestByStudent(ctx context.Context, db *gorm.DB, studentID snowflake.ID) (*domain.StudentSubscription, error) {
	var sub domain.StudentSubscription
	err := r.handle(db).WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repo) SetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.SubscriptionStatus) error {
	return r.handle(db).WithContext(ctx).
		Model(&domain.StudentSubscription{}).
		Where("id = ?", id).
		Update("status", status).Error
}
