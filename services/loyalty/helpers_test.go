package loyalty

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/gen"
	"smallbiznis-stampcard/services/testutil"
	"smallbiznis-stampcard/services/walletpass"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

// fakeCodes hands out sequence codes. With db set it records how many rewards
// were already committed when a code was requested; block waits for the
// context to end.
type fakeCodes struct {
	mu        sync.Mutex
	n         int
	err       error
	block     bool
	db        *gorm.DB
	committed []int64
	deadlines []bool
}

func (f *fakeCodes) NextRewardCode(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)
	if f.db != nil {
		var n int64
		if err := f.db.Model(&Reward{}).Count(&n).Error; err == nil {
			f.committed = append(f.committed, n)
		}
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return "RWD-261014-00" + string(rune('0'+f.n)) + "AB", nil
}

// recordingNotifier captures ledger changes and, when db is set, the stamps
// visible in storage at the moment it was called.
type recordingNotifier struct {
	mu      sync.Mutex
	db      *gorm.DB
	updates []walletpass.Update
	stored  []int
}

func (n *recordingNotifier) LedgerChanged(_ context.Context, u walletpass.Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, u)
	if n.db != nil {
		var p Profile
		if err := n.db.First(&p, "id = ?", u.CustomerID).Error; err == nil {
			n.stored = append(n.stored, p.Stamps)
		}
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Loyalty = config.Loyalty{PointsDivisor: 10, StampsPerPurchase: 1, StampsPerCard: 8, LevelThreshold: 500}
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.Issuer = "stampcard"
	return cfg
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	notifier *recordingNotifier
	codes    *fakeCodes
}

func newFixture(t *testing.T, models ...any) *fixture {
	t.Helper()
	if len(models) == 0 {
		models = Models()
	}

	db := testutil.NewTestDB(t, models...)
	node, err := gen.NewSnowflakeNode(1)
	require.NoError(t, err)

	f := &fixture{db: db, notifier: &recordingNotifier{db: db}, codes: &fakeCodes{db: db}}
	f.svc = NewService(ServiceParams{
		Config:   testConfig(),
		DB:       db,
		Node:     node,
		Codes:    f.codes,
		Notifier: f.notifier,
	})
	f.svc.now = func() time.Time { return fixedNow }

	testutil.MustCreate(t, db,
		&Profile{ID: "staff-1", FullName: "Marta", Role: RoleStaff},
		&Profile{ID: "admin-1", FullName: "Admin", Role: RoleAdmin},
	)
	return f
}

func (f *fixture) customer(t *testing.T, id string, points int64, stamps int) {
	t.Helper()
	testutil.MustCreate(t, f.db, &Profile{
		ID:             id,
		FullName:       "Customer " + id,
		Role:           RoleCustomer,
		CashbackPoints: points,
		Stamps:         stamps,
		LevelPoints:    120,
	})
}

func (f *fixture) profile(t *testing.T, id string) Profile {
	t.Helper()
	var p Profile
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p
}

func (f *fixture) rewards(t *testing.T, id string) []Reward {
	t.Helper()
	var rows []Reward
	require.NoError(t, f.db.Where("customer_id = ?", id).Find(&rows).Error)
	return rows
}

var errRedisDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
