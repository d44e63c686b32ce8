package walletpass

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"testing"
	"time"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/services/stampcard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

const (
	testIssuerID = "3388000000012345678"
	testEmail    = "wallet@loyalty-demo.iam.gserviceaccount.com"
)

var testKey = mustKey()

func mustKey() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
}

func pkcs8PEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// escapedPEM is how the key usually arrives through an env var.
func escapedPEM(t *testing.T, key *rsa.PrivateKey) string {
	return strings.ReplaceAll(pkcs8PEM(t, key), "\n", `\n`)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Loyalty.LevelThreshold = 500
	cfg.Wallet.Google = config.GoogleWallet{
		ServiceAccountEmail: testEmail,
		PrivateKey:          escapedPEM(t, testKey),
		IssuerID:            testIssuerID,
		ClassID:             testIssuerID + ".loyalty_card",
		SaveURL:             "https://pay.google.com/gp/v/save",
		TokenURL:            "https://oauth2.googleapis.com/token",
		APIBaseURL:          "https://walletobjects.googleapis.com/walletobjects/v1",
		Scope:               "https://www.googleapis.com/auth/wallet_object.issuer",
		DefaultDisplayName:  "Cliente",
		ProgramName:         "Loyalty Card",
		Origins:             []string{"https://loyalty.example.com"},
		Timeout:             2 * time.Second,
	}
	cfg.Wallet.Apple.Timeout = 2 * time.Second
	return cfg
}

func testSprites(t *testing.T) stampcard.SpriteTable {
	t.Helper()
	urls := make([]string, stampcard.MaxSlots+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://cdn.example.com/card-%d.png", i)
	}
	table, err := stampcard.NewSpriteTable(urls)
	require.NoError(t, err)
	return table
}
