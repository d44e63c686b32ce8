package loyalty

import (
	"context"
	"errors"
	"testing"

	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/pkg/gen"
	"smallbiznis-stampcard/services/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLockProfileSelectsForUpdate(t *testing.T) {
	m := testutil.NewMockDB(t)

	m.Mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1 .*FOR UPDATE`).
		WithArgs("c1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stamps", "version"}).AddRow("c1", 7, 3))

	p, err := NewRepository(m.DB).LockProfile(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, 7, p.Stamps)
	require.Equal(t, int64(3), p.Version)
}

func TestApplyChangeComparesVersion(t *testing.T) {
	m := testutil.NewMockDB(t)

	m.Mock.ExpectExec(`UPDATE "profiles" SET .*"version"=version \+ 1 WHERE .*id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewRepository(m.DB).ApplyChange(context.Background(), &Profile{ID: "c1", Version: 3}, LedgerChange{Stamps: 8, VisitedAt: fixedNow})
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestPersistenceFailureIsInternal(t *testing.T) {
	m := testutil.NewMockDB(t)
	node, err := gen.NewSnowflakeNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{Config: testConfig(), DB: m.DB, Node: node})

	m.Mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1`).
		WithArgs("staff-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow("staff-1", "staff"))
	m.Mock.ExpectBegin()
	m.Mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnError(errors.New("connection reset by peer"))
	m.Mock.ExpectRollback()

	_, err = svc.RegisterPurchase(context.Background(), PurchaseRequest{
		StaffID:    "staff-1",
		CustomerID: "c1",
		Amount:     decimal.NewFromInt(45),
	})
	require.True(t, errutil.Is(err, errutil.StatusInternal), "got %v", err)
}
