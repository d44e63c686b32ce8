package loyalty

import (
	"context"
	"errors"
	"time"

	"smallbiznis-stampcard/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrVersionConflict = errors.New("profile version changed")
)

// LedgerChange is the row delta applied by one purchase.
type LedgerChange struct {
	Points         int64
	Stamps         int
	RouletteVisits int
	VisitedAt      time.Time
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTrx binds the repository to an open transaction.
func (r *Repository) WithTrx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// LockProfile reads the row with SELECT ... FOR UPDATE. Dialects without row
// locks fall back to the version check in ApplyChange.
func (r *Repository) LockProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ApplyChange writes the new totals only if the row still carries the version
// that was read.
func (r *Repository) ApplyChange(ctx context.Context, p *Profile, next LedgerChange) error {
	res := r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"cashback_points":                 next.Points,
			"stamps":                          next.Stamps,
			"roulette_visits_since_last_spin": next.RouletteVisits,
			"last_visit":                      next.VisitedAt,
			"updated_at":                      next.VisitedAt,
			"version":                         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrVersionConflict
	}
	return nil
}

func (r *Repository) CreateReward(ctx context.Context, reward *Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *Repository) SetRewardCode(ctx context.Context, id int64, code string) error {
	return r.db.WithContext(ctx).Model(&Reward{}).Where("id = ?", id).Update("code", code).Error
}

func (r *Repository) CreateVisit(ctx context.Context, visit *VisitRecord) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

// ListVisits returns newest first, using (created_at, id) as the cursor.
func (r *Repository) ListVisits(ctx context.Context, customerID string, page pagination.Pagination) ([]VisitRecord, pagination.PageInfo, error) {
	limit := page.Size()
	q := r.db.WithContext(ctx).Where("customer_id = ?", customerID)

	if page.Cursor != "" {
		c, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, pagination.PageInfo{}, err
		}
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}

	var rows []VisitRecord
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, pagination.PageInfo{}, err
	}

	return pagination.BuildCursorPage(rows, limit, func(v VisitRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
}

func (r *Repository) ListRewards(ctx context.Context, customerID string, onlyOpen bool) ([]Reward, error) {
	q := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if onlyOpen {
		q = q.Where("redeemed = ?", false)
	}

	var rows []Reward
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
