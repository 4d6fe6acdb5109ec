package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/finvera/receivables/internal/domain/receivable"
	"github.com/finvera/receivables/internal/domain/shared"
	"github.com/finvera/receivables/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivableRepository implements receivable.Repository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByID finds a receivable by ID with its settlement history.
// Returns (nil, nil) when no receivable matches.
func (r *GormReceivableRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Preload("Settlements").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAndCount finds receivables matching the filter and returns the total count
func (r *GormReceivableRepository) FindAndCount(ctx context.Context, filter receivable.Filter) ([]receivable.Receivable, int64, error) {
	var count int64
	countQuery := applyFilter(r.db.WithContext(ctx).Model(&models.ReceivableModel{}), filter)
	if err := countQuery.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var modelList []models.ReceivableModel
	findQuery := applyFilter(r.db.WithContext(ctx).Model(&models.ReceivableModel{}), filter)
	if err := applyPagination(findQuery, filter.Filter).
		Preload("Settlements").
		Find(&modelList).Error; err != nil {
		return nil, 0, err
	}

	items := make([]receivable.Receivable, len(modelList))
	for i := range modelList {
		items[i] = *modelList[i].ToDomain()
	}
	return items, count, nil
}

// Save creates or updates a receivable together with its settlements
func (r *GormReceivableRepository) Save(ctx context.Context, rec *receivable.Receivable) error {
	model := models.ReceivableModelFromDomain(rec)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Settlements").Save(model).Error; err != nil {
			return err
		}
		if len(model.Settlements) == 0 {
			return nil
		}
		return tx.Create(&model.Settlements).Error
	})
}

// SettleWithLock persists a settlement and the updated receivable atomically.
// The receivable update carries a version predicate; zero affected rows means
// a concurrent writer advanced the version first and the whole transaction
// rolls back with shared.ErrConcurrencyConflict.
func (r *GormReceivableRepository) SettleWithLock(ctx context.Context, rec *receivable.Receivable, s *receivable.Settlement) error {
	settlementModel := models.SettlementModelFromDomain(s)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(settlementModel).Error; err != nil {
			return err
		}

		result := tx.Model(&models.ReceivableModel{}).
			Where("id = ? AND version = ?", rec.ID, rec.Version-1).
			Updates(map[string]any{
				"paid":       rec.Paid,
				"version":    rec.Version,
				"updated_at": rec.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// ReplaceSettlementsWithLock rewrites the settlement history and updates the
// receivable in one transaction under the version guard
func (r *GormReceivableRepository) ReplaceSettlementsWithLock(ctx context.Context, rec *receivable.Receivable) error {
	model := models.ReceivableModelFromDomain(rec)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receivable_id = ?", rec.ID).
			Delete(&models.SettlementModel{}).Error; err != nil {
			return err
		}
		if len(model.Settlements) > 0 {
			if err := tx.Create(&model.Settlements).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.ReceivableModel{}).
			Where("id = ? AND version = ?", rec.ID, rec.Version-1).
			Updates(map[string]any{
				"debtor_name": rec.DebtorName,
				"paid":        rec.Paid,
				"version":     rec.Version,
				"updated_at":  rec.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// Delete removes a receivable and its settlements
func (r *GormReceivableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receivable_id = ?", id).
			Delete(&models.SettlementModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ReceivableModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SumTotals sums total amounts over receivables matching the query.
// A NULL sum (no matching rows) maps to the -1 sentinel so callers can tell
// an empty slice apart from a zero-valued one.
func (r *GormReceivableRepository) SumTotals(ctx context.Context, q receivable.TotalsQuery) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("paid = ?", q.Paid)

	if q.MonthToDate {
		query = query.Where("created_at >= ?", startOfMonth(time.Now()))
	}

	var sum decimal.NullDecimal
	if err := query.Select("SUM(total_amount)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.NewFromInt(-1), nil
	}
	return sum.Decimal, nil
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func applyFilter(query *gorm.DB, filter receivable.Filter) *gorm.DB {
	if filter.DebtorID != nil {
		query = query.Where("debtor_id = ?", *filter.DebtorID)
	}
	if filter.Paid != nil {
		query = query.Where("paid = ?", *filter.Paid)
	}
	if filter.Search != "" {
		query = query.Where("debtor_name ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" && orderDir != "desc" {
		orderDir = "desc"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
