package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/db/pagination"
	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/pkg/gen"
	"smallbiznis-stampcard/pkg/logger"
	"smallbiznis-stampcard/pkg/sequence"
	"smallbiznis-stampcard/services/walletpass"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// maxAttempts bounds the version compare-and-swap retries of one purchase.
	maxAttempts       = 5
	rewardCodeTimeout = 500 * time.Millisecond
)

// MaxAmount is the largest amount the visits.amount numeric(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

var ErrPointsOverflow = errors.New("points balance overflow")

type PurchaseRequest struct {
	StaffID    string
	CustomerID string
	Amount     decimal.Decimal
	Notes      string
}

type Earned struct {
	Earned int64 `json:"earned"`
	Total  int64 `json:"total"`
}

type PurchaseResult struct {
	Points         Earned   `json:"points"`
	Stamps         Earned   `json:"stamps"`
	RouletteVisits int      `json:"rouletteVisits"`
	RewardCreated  bool     `json:"rewardCreated"`
	RewardCodes    []string `json:"rewardCodes,omitempty"`
}

type Ledger struct {
	CustomerID                  string     `json:"customerId"`
	Name                        string     `json:"name"`
	CashbackPoints              int64      `json:"cashbackPoints"`
	Stamps                      int        `json:"stamps"`
	CardProgress                int        `json:"cardProgress"`
	LevelPoints                 int64      `json:"levelPoints"`
	Tier                        string     `json:"tier"`
	RouletteVisitsSinceLastSpin int        `json:"rouletteVisitsSinceLastSpin"`
	LastVisit                   *time.Time `json:"lastVisit,omitempty"`
	CreatedAt                   time.Time  `json:"createdAt"`
}

type Service struct {
	db       *gorm.DB
	repo     *Repository
	policy   Policy
	loyalty  config.Loyalty
	node     *gen.SnowflakeNode
	codes    sequence.Generator
	notifier walletpass.Notifier
	metrics  *Metrics
	now      func() time.Time
}

type ServiceParams struct {
	fx.In
	Config   *config.Config
	DB       *gorm.DB
	Node     *gen.SnowflakeNode
	Codes    sequence.Generator  `optional:"true"`
	Notifier walletpass.Notifier `optional:"true"`
	Metrics  *Metrics            `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		repo:     NewRepository(p.DB),
		policy:   PolicyFrom(p.Config.Loyalty),
		loyalty:  p.Config.Loyalty,
		node:     p.Node,
		codes:    p.Codes,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		now:      time.Now,
	}
}

// RegisterPurchase applies one purchase to the customer's ledger. The ledger
// write and any unlocked rewards commit together; the audit visit and wallet
// sync run afterwards and never fail the purchase.
func (s *Service) RegisterPurchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	zapLog := zap.L().With(append(logger.TraceFields(ctx),
		zap.String("staff_id", req.StaffID),
		zap.String("customer_id", req.CustomerID),
	)...)

	if err := s.authorizeStaff(ctx, req.StaffID); err != nil {
		s.metrics.purchase("forbidden")
		return nil, err
	}

	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if err := validatePurchase(req); err != nil {
		s.metrics.purchase("invalid")
		return nil, err
	}

	var (
		result  *PurchaseResult
		profile *Profile
		rewards []*Reward
		err     error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, profile, rewards, err = s.applyPurchase(ctx, req)
		if !errors.Is(err, ErrVersionConflict) {
			break
		}
		zapLog.Warn("ledger version conflict, retrying", zap.Int("attempt", attempt))
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrPointsOverflow):
		s.metrics.purchase("invalid")
		return nil, errutil.ValidationFailed("purchase would overflow the points balance", err,
			errutil.WithDetails(errutil.Detail{Field: "amount", Message: "too large for the current balance"}),
		)
	case errors.Is(err, ErrProfileNotFound):
		s.metrics.purchase("not_found")
		return nil, errutil.NotFound("customer not found", err, errutil.WithField("userId", req.CustomerID))
	case errors.Is(err, ErrVersionConflict):
		s.metrics.purchase("conflict")
		zapLog.Error("ledger update kept conflicting", zap.Error(err))
		return nil, errutil.Conflict("ledger is busy, retry the purchase", err)
	default:
		s.metrics.purchase("error")
		zapLog.Error("failed to register purchase", zap.Error(err))
		return nil, errutil.Internal("failed to register purchase", err)
	}

	result.RewardCodes = s.assignRewardCodes(ctx, rewards)

	s.metrics.purchase("ok")
	zapLog.Info("purchase registered",
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.Int64("points_total", result.Points.Total),
		zap.Int64("stamps_total", result.Stamps.Total),
		zap.Bool("reward_created", result.RewardCreated),
	)

	s.appendVisit(ctx, req, result)

	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, walletpass.Update{
			CustomerID:  profile.ID,
			Name:        profile.FullName,
			Points:      result.Points.Total,
			Stamps:      int(result.Stamps.Total),
			LevelPoints: profile.LevelPoints,
		})
	}

	return result, nil
}

func (s *Service) applyPurchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, *Profile, []*Reward, error) {
	var (
		result  *PurchaseResult
		profile *Profile
		rewards []*Reward
	)

	// the row lock is held until commit; only database calls belong in here
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		current, err := repo.LockProfile(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		pointsEarned := s.policy.PointsFor(req.Amount)
		if pointsEarned < 0 || current.CashbackPoints > math.MaxInt64-pointsEarned {
			return ErrPointsOverflow
		}
		stampsEarned := s.policy.StampsPerPurchase
		next := LedgerChange{
			Points:         current.CashbackPoints + pointsEarned,
			Stamps:         current.Stamps + stampsEarned,
			RouletteVisits: current.RouletteVisitsSinceLastSpin + 1,
			VisitedAt:      s.now().UTC(),
		}

		if err := repo.ApplyChange(ctx, current, next); err != nil {
			return err
		}

		rewards = nil
		for i := 0; i < s.policy.RewardsUnlocked(current.Stamps, next.Stamps); i++ {
			reward := s.stampReward(current.ID, next)
			if err := repo.CreateReward(ctx, reward); err != nil {
				return fmt.Errorf("create reward: %w", err)
			}
			rewards = append(rewards, reward)
		}

		profile = current
		result = &PurchaseResult{
			Points:         Earned{Earned: pointsEarned, Total: next.Points},
			Stamps:         Earned{Earned: int64(stampsEarned), Total: int64(next.Stamps)},
			RouletteVisits: next.RouletteVisits,
			RewardCreated:  len(rewards) > 0,
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return result, profile, rewards, nil
}

// stampReward carries a snowflake based code until assignRewardCodes replaces
// it after commit.
func (s *Service) stampReward(customerID string, next LedgerChange) *Reward {
	id := s.node.GenerateID()
	return &Reward{
		ID:          id.Int64(),
		CustomerID:  customerID,
		Code:        "RWD-" + id.Base36(),
		Type:        RewardProduct,
		Value:       s.policy.RewardValue,
		Description: s.policy.RewardDescription,
		Source:      SourceStamps,
		Metadata:    datatypes.JSONMap{"stamps": next.Stamps},
		CreatedAt:   next.VisitedAt,
	}
}

// assignRewardCodes swaps committed rewards onto the daily redis sequence.
// A reward keeps its snowflake code when redis is slow or unavailable.
func (s *Service) assignRewardCodes(ctx context.Context, rewards []*Reward) []string {
	codes := make([]string, 0, len(rewards))
	for _, reward := range rewards {
		if s.codes != nil {
			if code, err := s.nextRewardCode(ctx); err != nil {
				zap.L().With(logger.TraceFields(ctx)...).Warn("reward sequence unavailable, keeping snowflake code",
					zap.Int64("reward_id", reward.ID), zap.Error(err))
			} else if err := s.repo.SetRewardCode(context.WithoutCancel(ctx), reward.ID, code); err != nil {
				zap.L().With(logger.TraceFields(ctx)...).Warn("failed to store reward code, keeping snowflake code",
					zap.Int64("reward_id", reward.ID), zap.Error(err))
			} else {
				reward.Code = code
			}
		}
		codes = append(codes, reward.Code)
	}
	return codes
}

func (s *Service) nextRewardCode(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rewardCodeTimeout)
	defer cancel()
	return s.codes.NextRewardCode(ctx)
}

func (s *Service) appendVisit(ctx context.Context, req PurchaseRequest, result *PurchaseResult) {
	visit := &VisitRecord{
		ID:           s.node.GenerateID().Int64(),
		CustomerID:   req.CustomerID,
		StaffID:      req.StaffID,
		Amount:       req.Amount.Round(2),
		PointsEarned: result.Points.Earned,
		StampsEarned: int(result.Stamps.Earned),
		Notes:        req.Notes,
		Metadata: datatypes.JSONMap{
			"points_total":   result.Points.Total,
			"stamps_total":   result.Stamps.Total,
			"reward_created": result.RewardCreated,
		},
		CreatedAt: s.now().UTC(),
	}
	visit.Hash = visit.GenerateHash()

	if err := s.repo.CreateVisit(context.WithoutCancel(ctx), visit); err != nil {
		s.metrics.audit("error")
		zap.L().With(logger.TraceFields(ctx)...).Error("failed to append visit record",
			zap.String("customer_id", req.CustomerID),
			zap.Int64("visit_id", visit.ID),
			zap.Error(err),
		)
		return
	}
	s.metrics.audit("ok")
}

func (s *Service) authorizeStaff(ctx context.Context, staffID string) error {
	if staffID == "" {
		return errutil.Unauthorized("authentication required", nil)
	}

	staff, err := s.repo.FindProfile(ctx, staffID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return errutil.Forbidden("only staff can register purchases", err)
	case err != nil:
		return errutil.Internal("failed to resolve caller role", err)
	case !staff.Role.CanRegisterPurchases():
		return errutil.Forbidden("only staff can register purchases", nil, errutil.WithField("role", staff.Role))
	}
	return nil
}

// authorizeReader allows staff, admins and the customer themself.
func (s *Service) authorizeReader(ctx context.Context, callerID, customerID string) error {
	if callerID == "" {
		return errutil.Unauthorized("authentication required", nil)
	}
	if callerID == customerID {
		return nil
	}
	return s.authorizeStaff(ctx, callerID)
}

func validatePurchase(req PurchaseRequest) error {
	var details []errutil.Detail
	if req.CustomerID == "" {
		details = append(details, errutil.Detail{Field: "userId", Message: "required"})
	}
	switch {
	case !req.Amount.IsPositive():
		details = append(details, errutil.Detail{Field: "amount", Message: "must be a positive number"})
	case req.Amount.GreaterThan(MaxAmount):
		details = append(details, errutil.Detail{Field: "amount", Message: "must not exceed " + MaxAmount.StringFixed(2)})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid purchase", nil, errutil.WithDetails(details...))
	}
	return nil
}

func (s *Service) GetLedger(ctx context.Context, callerID, customerID string) (*Ledger, error) {
	if err := s.authorizeReader(ctx, callerID, customerID); err != nil {
		return nil, err
	}

	p, err := s.findCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		CustomerID:                  p.ID,
		Name:                        p.FullName,
		CashbackPoints:              p.CashbackPoints,
		Stamps:                      p.Stamps,
		CardProgress:                cardProgress(p.Stamps, s.policy.StampsPerCard),
		LevelPoints:                 p.LevelPoints,
		Tier:                        walletpass.Tier(p.LevelPoints, s.loyalty.LevelThreshold),
		RouletteVisitsSinceLastSpin: p.RouletteVisitsSinceLastSpin,
		LastVisit:                   p.LastVisit,
		CreatedAt:                   p.CreatedAt,
	}, nil
}

func (s *Service) ListVisits(ctx context.Context, callerID, customerID string, page pagination.Pagination) ([]VisitRecord, pagination.PageInfo, error) {
	if err := s.authorizeReader(ctx, callerID, customerID); err != nil {
		return nil, pagination.PageInfo{}, err
	}
	if page.Cursor != "" {
		if _, err := pagination.DecodeCursor(page.Cursor); err != nil {
			return nil, pagination.PageInfo{}, errutil.BadRequest("invalid cursor", err)
		}
	}
	if _, err := s.findCustomer(ctx, customerID); err != nil {
		return nil, pagination.PageInfo{}, err
	}

	visits, info, err := s.repo.ListVisits(ctx, customerID, page)
	if err != nil {
		return nil, pagination.PageInfo{}, errutil.Internal("failed to list visits", err)
	}
	return visits, info, nil
}

func (s *Service) ListRewards(ctx context.Context, callerID, customerID string, onlyOpen bool) ([]Reward, error) {
	if err := s.authorizeReader(ctx, callerID, customerID); err != nil {
		return nil, err
	}
	if _, err := s.findCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	rewards, err := s.repo.ListRewards(ctx, customerID, onlyOpen)
	if err != nil {
		return nil, errutil.Internal("failed to list rewards", err)
	}
	return rewards, nil
}

// WalletSnapshot reads the wallet view of a ledger for the sync worker.
func (s *Service) WalletSnapshot(ctx context.Context, customerID string) (walletpass.Update, error) {
	p, err := s.findCustomer(ctx, customerID)
	if err != nil {
		return walletpass.Update{}, err
	}
	return walletpass.Update{
		CustomerID:  p.ID,
		Name:        p.FullName,
		Points:      p.CashbackPoints,
		Stamps:      p.Stamps,
		LevelPoints: p.LevelPoints,
	}, nil
}

// ResyncWallet re-enqueues a wallet sync for a customer. Staff only.
func (s *Service) ResyncWallet(ctx context.Context, callerID, customerID string) error {
	if err := s.authorizeStaff(ctx, callerID); err != nil {
		return err
	}
	if s.notifier == nil {
		return errutil.Configuration("wallet sync is not configured", nil)
	}

	update, err := s.WalletSnapshot(ctx, customerID)
	if err != nil {
		return err
	}
	s.notifier.LedgerChanged(ctx, update)
	return nil
}

func (s *Service) findCustomer(ctx context.Context, customerID string) (*Profile, error) {
	p, err := s.repo.FindProfile(ctx, customerID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return nil, errutil.NotFound("customer not found", err, errutil.WithField("userId", customerID))
	case err != nil:
		return nil, errutil.Internal("failed to load ledger", err)
	}
	return p, nil
}

func cardProgress(stamps, perCard int) int {
	if stamps <= 0 || perCard <= 0 {
		return 0
	}
	if stamps%perCard == 0 {
		return perCard
	}
	return stamps % perCard
}
