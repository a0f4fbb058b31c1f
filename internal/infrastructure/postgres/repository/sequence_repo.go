package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSequenceRepository hands out monotonically increasing values.
// Postgres uses native sequences; other dialects fall back to a counter
// row in the sequences table.
type DefaultSequenceRepository struct {
	DB *gorm.DB
}

func NewDefaultSequenceRepository(db *gorm.DB) *DefaultSequenceRepository {
	return &DefaultSequenceRepository{DB: db}
}

func (r *DefaultSequenceRepository) NextValue(ctx context.Context, name string) (int64, error) {
	if r.DB.Dialector.Name() == "postgres" {
		return r.nextNative(ctx, name)
	}
	return r.nextCounter(ctx, name)
}

func (r *DefaultSequenceRepository) nextNative(ctx context.Context, name string) (int64, error) {
	var value int64
	if err := r.DB.WithContext(ctx).Raw("SELECT nextval(?)", name).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("nextval %s: %w", name, err)
	}
	if value == 0 {
		return 0, domain.ErrSequenceExhausted
	}
	return value, nil
}

func (r *DefaultSequenceRepository) nextCounter(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SequenceModel{Name: name, Value: 0}).Error; err != nil {
			return err
		}
		res := tx.Model(&models.SequenceModel{}).
			Where("name = ?", name).
			Update("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSequenceExhausted
		}

		var row models.SequenceModel
		if err := tx.Where("name = ?", name).First(&row).Error; err != nil {
			return err
		}
		value = row.Value
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSequenceExhausted) {
			return 0, err
		}
		return 0, fmt.Errorf("next value %s: %w", name, err)
	}
	return value, nil
}
