package walletpass

import (
	"context"
	"net/http"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/services/stampcard"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Pusher pushes ledger state to the provider.
type Pusher interface {
	Push(ctx context.Context, u Update) error
}

type Updater struct {
	cfg       GoogleConfig
	creds     *Credentials
	client    *resty.Client
	sprites   stampcard.SpriteTable
	threshold int64
	metrics   *Metrics
}

func NewUpdater(cfg GoogleConfig, creds *Credentials, client *resty.Client, sprites stampcard.SpriteTable, loyalty config.Loyalty, metrics *Metrics) *Updater {
	return &Updater{
		cfg:       cfg,
		creds:     creds,
		client:    client,
		sprites:   sprites,
		threshold: loyalty.LevelThreshold,
		metrics:   metrics,
	}
}

// Push PATCHes the pass object derived from u.CustomerID. Errors are
// classified: configuration, not found (pass never saved), or bad gateway.
func (u *Updater) Push(ctx context.Context, upd Update) error {
	objectID := ObjectID(u.cfg.IssuerID, upd.CustomerID)
	zapLog := zap.L().With(
		zap.String("customer_id", upd.CustomerID),
		zap.String("object_id", objectID),
	)

	if err := u.cfg.Validate(); err != nil {
		u.metrics.pushed("config_error")
		zapLog.Warn("wallet pass update skipped, provider not configured", zap.Error(err))
		return err
	}

	token, err := u.creds.Token(ctx)
	if err != nil {
		u.metrics.pushed("auth_error")
		zapLog.Error("wallet pass update failed to authorize", zap.Error(err))
		return err
	}

	resp, err := u.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(BuildPatch(upd, u.sprites, u.threshold, u.cfg.DefaultDisplayName)).
		Patch(u.cfg.APIBaseURL + "/loyaltyObject/" + objectID)
	if err != nil {
		u.metrics.pushed("upstream_error")
		zapLog.Error("wallet pass update request failed", zap.Error(err))
		return errutil.BadGateway("wallet pass update failed", err)
	}

	if resp.IsError() {
		zapLog.Error("wallet pass update rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		opts := []errutil.Option{
			errutil.WithField("upstreamStatus", resp.StatusCode()),
			errutil.WithDetails(errutil.Detail{Field: "loyaltyObject", Message: resp.String()}),
		}
		if resp.StatusCode() == http.StatusNotFound {
			u.metrics.pushed("not_found")
			return errutil.NotFound("wallet pass object does not exist", nil, opts...)
		}
		u.metrics.pushed("upstream_error")
		return errutil.BadGateway("wallet pass update rejected", nil, opts...)
	}

	u.metrics.pushed("ok")
	zapLog.Info("wallet pass updated",
		zap.Int64("points", upd.Points),
		zap.Int("stamps", upd.Stamps),
	)
	return nil
}
