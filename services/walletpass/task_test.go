package walletpass

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/pkg/taskname"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	err    error
	pushed []Update
}

func (f *fakePusher) Push(_ context.Context, u Update) error {
	f.pushed = append(f.pushed, u)
	return f.err
}

type fakeReader struct {
	snap Update
	err  error
}

func (f *fakeReader) WalletSnapshot(_ context.Context, customerID string) (Update, error) {
	if f.err != nil {
		return Update{}, f.err
	}
	s := f.snap
	s.CustomerID = customerID
	return s, nil
}

func syncTask(t *testing.T, u Update) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(SyncPassPayload{Update: u})
	require.NoError(t, err)
	return asynq.NewTask(taskname.WalletSyncPass, b)
}

func TestHandleSyncPassUsesLatestSnapshot(t *testing.T) {
	pusher := &fakePusher{}
	reader := &fakeReader{snap: Update{Points: 20, Stamps: 9}}
	task := NewSyncTask(SyncTaskParams{Pusher: pusher, Reader: reader})

	require.NoError(t, task.HandleSyncPass(context.Background(), syncTask(t, Update{CustomerID: "c1", Points: 14, Stamps: 8})))
	require.Equal(t, []Update{{CustomerID: "c1", Points: 20, Stamps: 9}}, pusher.pushed)
}

func TestHandleSyncPassFallsBackToPayload(t *testing.T) {
	pusher := &fakePusher{}
	task := NewSyncTask(SyncTaskParams{Pusher: pusher, Reader: &fakeReader{err: errors.New("db down")}})

	require.NoError(t, task.HandleSyncPass(context.Background(), syncTask(t, Update{CustomerID: "c1", Points: 14})))
	require.Equal(t, int64(14), pusher.pushed[0].Points)
}

func TestHandleSyncPassRetryPolicy(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		skipRetry bool
	}{
		{"configuration", errutil.Configuration("missing", nil), true},
		{"pass not saved", errutil.NotFound("no object", nil), true},
		{"upstream", errutil.BadGateway("503", nil), false},
		{"network", errors.New("dial tcp: timeout"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := NewSyncTask(SyncTaskParams{Pusher: &fakePusher{err: tc.err}})

			err := task.HandleSyncPass(context.Background(), syncTask(t, Update{CustomerID: "c1"}))
			require.Error(t, err)
			require.Equal(t, tc.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestHandleSyncPassBadPayloads(t *testing.T) {
	task := NewSyncTask(SyncTaskParams{Pusher: &fakePusher{}})

	err := task.HandleSyncPass(context.Background(), asynq.NewTask(taskname.WalletSyncPass, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = task.HandleSyncPass(context.Background(), syncTask(t, Update{}))
	require.ErrorIs(t, err, asynq.SkipRetry)

	missing := NewSyncTask(SyncTaskParams{Pusher: &fakePusher{}, Reader: &fakeReader{err: errutil.NotFound("gone", nil)}})
	err = missing.HandleSyncPass(context.Background(), syncTask(t, Update{CustomerID: "c1"}))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
