package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/deskhivelabs/deskhive/internal/catalog/domain"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) handle(db *gorm.DB) *gorm.DB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Repository) FindLibrary(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Library, error) {
	var library domain.Library
	if err := r.handle(db).WithContext(ctx).First(&library, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLibraryNotFound
		}
		return nil, err
	}
	return &library, nil
}

func (r *Repository) FindBranch(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Branch, error) {
	var branch domain.Branch
	if err := r.handle(db).WithContext(ctx).First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBranchNotFound
		}
		return nil, err
	}
	return &branch, nil
}

func (r *Repository) FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.handle(db).WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *Repository) FindFee(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Fee, error) {
	var fee domain.Fee
	if err := r.handle(db).WithContext(ctx).First(&fee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFeeNotFound
		}
		return nil, err
	}
	return &fee, nil
}

func (r *Repository) FindStudent(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Student, error) {
	var student domain.Student
	if err := r.handle(db).WithContext(ctx).First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}
