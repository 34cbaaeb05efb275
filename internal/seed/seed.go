package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogdomain "github.com/deskhivelabs/deskhive/internal/catalog/domain"
)

const demoLibraryName = "Demo Library"

// EnsureDemoLibrary seeds one library with a branch, a monthly plan, a fee
// and a student so a fresh deployment has something to point a client at.
// Idempotent: an existing library with the demo name short-circuits.
func EnsureDemoLibrary(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing catalogdomain.Library
		err := tx.Where("name = ?", demoLibraryName).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		library := catalogdomain.Library{
			ID:   node.Generate(),
			Name: demoLibraryName,
			Settings: datatypes.JSON(`{
				"referral": {
					"all": {
						"enabled": true,
						"reward_type": "fixed",
						"reward_value": 5000,
						"discount_type": "percentage",
						"discount_value": 10
					}
				}
			}`),
			CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Create(&library).Error; err != nil {
			return err
		}

		branch := catalogdomain.Branch{
			ID: node.Generate(), LibraryID: library.ID, Name: "Main Branch",
			CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}

		branchID := branch.ID
		plan := catalogdomain.Plan{
			ID: node.Generate(), LibraryID: library.ID, BranchID: &branchID,
			Name: "Monthly Full Day", Amount: 120000,
			Duration: 1, DurationUnit: catalogdomain.DurationUnitMonths,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}

		fee := catalogdomain.Fee{
			ID: node.Generate(), LibraryID: library.ID, BranchID: &branchID,
			Name: "Locker Deposit", Amount: 50000,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Create(&fee).Error; err != nil {
			return err
		}

		student := catalogdomain.Student{
			ID: node.Generate(), LibraryID: library.ID, BranchID: &branchID,
			Name: "Demo Student", Email: "student@example.com",
			CreatedAt: now, UpdatedAt: now,
		}
		return tx.Create(&student).Error
	})
}
