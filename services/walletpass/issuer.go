package walletpass

import (
	"context"
	"strings"
	"time"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/errutil"
	"smallbiznis-stampcard/pkg/httpclient"
	"smallbiznis-stampcard/services/stampcard"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	saveAudience = "google"
	saveType     = "savetowallet"

	pkpassContentType = "application/vnd.apple.pkpass"
)

// IssueRequest is the body of both wallet issue endpoints.
type IssueRequest struct {
	ObjectIDSuffix string         `json:"objectIdSuffix"`
	CustomerData   *CustomerInput `json:"customerData"`
}

type SaveResult struct {
	SaveURL  string `json:"saveUrl"`
	ObjectID string `json:"objectId"`
}

type PassArtifact struct {
	Data        []byte
	Filename    string
	ContentType string
}

type saveClaims struct {
	jwt.Claims
	Type    string      `json:"typ"`
	Origins []string    `json:"origins"`
	Payload savePayload `json:"payload"`
}

type savePayload struct {
	LoyaltyObjects []LoyaltyObject `json:"loyaltyObjects"`
}

type Issuer struct {
	google    GoogleConfig
	appleCfg  config.AppleWallet
	sprites   stampcard.SpriteTable
	signer    *lazySigner
	appleHTTP *resty.Client
	metrics   *Metrics
	now       func() time.Time
}

type IssuerParams struct {
	fx.In
	Config  *config.Config
	Sprites stampcard.SpriteTable
	Metrics *Metrics `optional:"true"`
}

func NewIssuer(p IssuerParams) *Issuer {
	google := GoogleConfigFrom(p.Config.Wallet.Google)
	return &Issuer{
		google:    google,
		appleCfg:  p.Config.Wallet.Apple,
		sprites:   p.Sprites,
		signer:    newLazySigner(google.PrivateKey),
		appleHTTP: httpclient.New("apple-pass-service", p.Config.Wallet.Apple.Timeout),
		metrics:   p.Metrics,
		now:       time.Now,
	}
}

// IssueGoogle signs a save-to-wallet JWT for the customer. Configuration is
// checked before any signing.
func (i *Issuer) IssueGoogle(ctx context.Context, req IssueRequest) (*SaveResult, error) {
	if err := i.google.Validate(); err != nil {
		i.metrics.issued("google", "config_error")
		return nil, err
	}

	customer, err := req.CustomerData.Normalize(i.google.DefaultDisplayName)
	if err != nil {
		i.metrics.issued("google", "invalid")
		return nil, err
	}

	i.checkSuffix(req.ObjectIDSuffix, customer.ID)

	signer, err := i.signer.get()
	if err != nil {
		i.metrics.issued("google", "config_error")
		return nil, err
	}

	obj := NewLoyaltyObject(i.google, i.sprites, customer)
	claims := saveClaims{
		Claims: jwt.Claims{
			Issuer:   i.google.ServiceAccountEmail,
			Audience: jwt.Audience{saveAudience},
			IssuedAt: jwt.NewNumericDate(i.now()),
		},
		Type:    saveType,
		Origins: nonNil(i.google.Origins),
		Payload: savePayload{LoyaltyObjects: []LoyaltyObject{obj}},
	}

	token, err := signer.Sign(claims)
	if err != nil {
		i.metrics.issued("google", "sign_error")
		return nil, err
	}

	zap.L().Info("google wallet save url issued",
		zap.String("customer_id", customer.ID),
		zap.String("object_id", obj.ID),
	)
	i.metrics.issued("google", "ok")

	return &SaveResult{
		SaveURL:  i.google.SaveURL + "/" + token,
		ObjectID: obj.ID,
	}, nil
}

type applePassRequest struct {
	SerialNumber string   `json:"serialNumber"`
	ProgramName  string   `json:"programName,omitempty"`
	Customer     Customer `json:"customer"`
	StampsOnCard int      `json:"stampsOnCard"`
}

// IssueApple asks the pass signing service for a .pkpass bundle. Non 2xx
// answers are returned as BadGateway carrying the upstream body verbatim.
func (i *Issuer) IssueApple(ctx context.Context, req IssueRequest) (*PassArtifact, error) {
	if strings.TrimSpace(i.appleCfg.PassServiceURL) == "" {
		i.metrics.issued("apple", "config_error")
		return nil, errutil.Configuration("apple wallet is not configured", nil,
			errutil.WithDetails(errutil.Detail{Field: "pass_service_url", Message: "missing"}),
			errutil.WithField("missing", []string{"pass_service_url"}),
		)
	}

	customer, err := req.CustomerData.Normalize(i.google.DefaultDisplayName)
	if err != nil {
		i.metrics.issued("apple", "invalid")
		return nil, err
	}

	suffix := ObjectSuffix(customer.ID)
	zapLog := zap.L().With(zap.String("customer_id", customer.ID), zap.String("serial_number", suffix))

	r := i.appleHTTP.R().
		SetContext(ctx).
		SetHeader("Accept", pkpassContentType).
		SetBody(applePassRequest{
			SerialNumber: suffix,
			ProgramName:  i.google.ProgramName,
			Customer:     customer,
			StampsOnCard: stampcard.CycleProgress(customer.Stamps),
		})
	if i.appleCfg.APIKey != "" {
		r.SetAuthToken(i.appleCfg.APIKey)
	}

	resp, err := r.Post(i.appleCfg.PassServiceURL)
	if err != nil {
		zapLog.Error("apple pass service unreachable", zap.Error(err))
		i.metrics.issued("apple", "upstream_error")
		return nil, errutil.BadGateway("apple pass service unreachable", err,
			errutil.WithDetails(errutil.Detail{Field: "pass_service", Message: err.Error()}))
	}
	if resp.IsError() {
		body := resp.String()
		zapLog.Error("apple pass service rejected request",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", body),
		)
		i.metrics.issued("apple", "upstream_error")
		return nil, errutil.BadGateway("apple pass service rejected the request", nil,
			errutil.WithDetails(errutil.Detail{Field: "pass_service", Message: body}),
			errutil.WithField("upstreamStatus", resp.StatusCode()),
		)
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = pkpassContentType
	}

	zapLog.Info("apple wallet pass issued", zap.Int("bytes", len(resp.Body())))
	i.metrics.issued("apple", "ok")

	return &PassArtifact{
		Data:        resp.Body(),
		Filename:    "loyalty-" + suffix + ".pkpass",
		ContentType: contentType,
	}, nil
}

// checkSuffix logs a client supplied suffix that disagrees with the derived one.
// The derived suffix always wins.
func (i *Issuer) checkSuffix(supplied, customerID string) {
	if supplied == "" || supplied == ObjectSuffix(customerID) {
		return
	}
	zap.L().Warn("ignoring objectIdSuffix that does not match customer id",
		zap.String("customer_id", customerID),
		zap.String("supplied_suffix", supplied),
	)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

