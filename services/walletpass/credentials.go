package walletpass

import (
	"context"
	"sync"
	"time"

	"smallbiznis-stampcard/pkg/errutil"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	jwtBearerGrant   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL     = time.Hour
	tokenExpiryGrace = 60 * time.Second
)

// CredentialState tracks the token exchange: NeedCredential -> Signing ->
// Exchanging -> Authorized. A failure anywhere drops back to NeedCredential.
type CredentialState int

const (
	StateNeedCredential CredentialState = iota
	StateSigning
	StateExchanging
	StateAuthorized
)

func (s CredentialState) String() string {
	switch s {
	case StateSigning:
		return "signing"
	case StateExchanging:
		return "exchanging"
	case StateAuthorized:
		return "authorized"
	default:
		return "need_credential"
	}
}

type assertionClaims struct {
	jwt.Claims
	Scope string `json:"scope"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Credentials exchanges the service account key for short lived bearer
// tokens. Tokens are cached until shortly before expiry and concurrent callers
// share one exchange.
type Credentials struct {
	cfg    GoogleConfig
	signer *lazySigner
	client *resty.Client
	tokens *cache.Cache
	group  singleflight.Group
	now    func() time.Time

	mu    sync.Mutex
	state CredentialState
}

func NewCredentials(cfg GoogleConfig, signer *lazySigner, client *resty.Client) *Credentials {
	return &Credentials{
		cfg:    cfg,
		signer: signer,
		client: client,
		tokens: cache.New(cache.NoExpiration, 10*time.Minute),
		now:    time.Now,
	}
}

func (c *Credentials) State() CredentialState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Credentials) setState(s CredentialState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Token returns a valid bearer token, exchanging a fresh assertion when the
// cached one is missing or about to expire.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	key := c.cfg.ServiceAccountEmail
	if tok, ok := c.tokens.Get(key); ok {
		return tok.(string), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if tok, ok := c.tokens.Get(key); ok {
			return tok.(string), nil
		}
		return c.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Credentials) exchange(ctx context.Context) (string, error) {
	zapLog := zap.L().With(zap.String("service_account", c.cfg.ServiceAccountEmail))
	c.setState(StateNeedCredential)

	if err := c.cfg.Validate(); err != nil {
		return "", err
	}

	c.setState(StateSigning)
	signer, err := c.signer.get()
	if err != nil {
		c.setState(StateNeedCredential)
		return "", err
	}

	now := c.now()
	assertion, err := signer.Sign(assertionClaims{
		Claims: jwt.Claims{
			Issuer:   c.cfg.ServiceAccountEmail,
			Audience: jwt.Audience{c.cfg.TokenURL},
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(assertionTTL)),
		},
		Scope: c.cfg.Scope,
	})
	if err != nil {
		c.setState(StateNeedCredential)
		return "", err
	}

	c.setState(StateExchanging)
	var out tokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		SetResult(&out).
		Post(c.cfg.TokenURL)
	if err != nil {
		c.setState(StateNeedCredential)
		zapLog.Error("wallet token exchange failed", zap.Error(err))
		return "", errutil.BadGateway("wallet token exchange failed", err,
			errutil.WithDetails(errutil.Detail{Field: "token_url", Message: err.Error()}))
	}
	if resp.IsError() || out.AccessToken == "" {
		c.setState(StateNeedCredential)
		zapLog.Error("wallet token exchange rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return "", errutil.BadGateway("wallet token exchange rejected", nil,
			errutil.WithDetails(errutil.Detail{Field: "token_url", Message: resp.String()}),
			errutil.WithField("upstreamStatus", resp.StatusCode()),
		)
	}

	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenExpiryGrace
	if ttl > 0 {
		c.tokens.Set(c.cfg.ServiceAccountEmail, out.AccessToken, ttl)
	}
	c.setState(StateAuthorized)
	zapLog.Debug("wallet access token issued", zap.Duration("ttl", ttl))

	return out.AccessToken, nil
}
