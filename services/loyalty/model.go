package loyalty

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) CanRegisterPurchases() bool {
	return r == RoleStaff || r == RoleAdmin
}

type RewardType string

const (
	RewardProduct RewardType = "product"
	RewardPoints  RewardType = "points"
	RewardCoupon  RewardType = "coupon"
)

type RewardSource string

const (
	SourceStamps   RewardSource = "stamps"
	SourceRoulette RewardSource = "roulette"
)

// Profile is the customer ledger row. Staff and admins share the table and
// are told apart by Role. Version is bumped on every ledger write.
type Profile struct {
	ID                          string     `gorm:"column:id;primaryKey;size:64"`
	FullName                    string     `gorm:"column:full_name"`
	Role                        Role       `gorm:"column:role;type:varchar(16);not null;default:'customer'"`
	CashbackPoints              int64      `gorm:"column:cashback_points;not null;default:0"`
	Stamps                      int        `gorm:"column:stamps;not null;default:0"`
	LevelPoints                 int64      `gorm:"column:level_points;not null;default:0"`
	RouletteVisitsSinceLastSpin int        `gorm:"column:roulette_visits_since_last_spin;not null;default:0"`
	LastVisit                   *time.Time `gorm:"column:last_visit"`
	Version                     int64      `gorm:"column:version;not null;default:0"`
	CreatedAt                   time.Time  `gorm:"column:created_at"`
	UpdatedAt                   time.Time  `gorm:"column:updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// VisitRecord is the append-only audit entry of one purchase.
type VisitRecord struct {
	ID           int64             `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	CustomerID   string            `gorm:"column:customer_id;index;not null" json:"customerId"`
	StaffID      string            `gorm:"column:staff_id;not null" json:"staffId"`
	Amount       decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	PointsEarned int64             `gorm:"column:points_earned;not null" json:"pointsEarned"`
	StampsEarned int               `gorm:"column:stamps_earned;not null" json:"stampsEarned"`
	Notes        string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	Hash         string            `gorm:"column:hash;size:64" json:"hash"`
	CreatedAt    time.Time         `gorm:"column:created_at" json:"createdAt"`
}

func (VisitRecord) TableName() string { return "visits" }

func (v *VisitRecord) hashFields() map[string]string {
	return map[string]string{
		"id":            fmt.Sprintf("%d", v.ID),
		"customer_id":   v.CustomerID,
		"staff_id":      v.StaffID,
		"amount":        v.Amount.String(),
		"points_earned": fmt.Sprintf("%d", v.PointsEarned),
		"stamps_earned": fmt.Sprintf("%d", v.StampsEarned),
		"notes":         v.Notes,
		"created_at":    v.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// GenerateHash fingerprints the record so later edits are detectable.
func (v *VisitRecord) GenerateHash() string {
	fields := v.hashFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Reward is created unredeemed; redemption happens elsewhere.
type Reward struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	CustomerID  string            `gorm:"column:customer_id;index;not null" json:"customerId"`
	Code        string            `gorm:"column:code;uniqueIndex;size:32;not null" json:"code"`
	Type        RewardType        `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Value       string            `gorm:"column:value" json:"value"`
	Description string            `gorm:"column:description" json:"description"`
	Source      RewardSource      `gorm:"column:source;type:varchar(16);not null" json:"source"`
	Redeemed    bool              `gorm:"column:redeemed;not null;default:false" json:"redeemed"`
	RedeemedAt  *time.Time        `gorm:"column:redeemed_at" json:"redeemedAt,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"column:created_at" json:"createdAt"`
}

func (Reward) TableName() string { return "rewards" }

// Models lists every table this service owns.
func Models() []any {
	return []any{&Profile{}, &VisitRecord{}, &Reward{}}
}
