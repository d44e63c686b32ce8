package walletpass

import (
	"strings"

	"smallbiznis-stampcard/pkg/config"
	"smallbiznis-stampcard/pkg/errutil"
)

const (
	pemBeginMarker = "-----BEGIN"
	pemEndMarker   = "PRIVATE KEY-----"
)

// GoogleConfig is the wallet provider configuration with the private key
// already normalised.
type GoogleConfig struct {
	ServiceAccountEmail string
	PrivateKey          string
	IssuerID            string
	ClassID             string
	SaveURL             string
	TokenURL            string
	APIBaseURL          string
	Scope               string
	DefaultDisplayName  string
	ProgramName         string
	Origins             []string
}

func GoogleConfigFrom(c config.GoogleWallet) GoogleConfig {
	return GoogleConfig{
		ServiceAccountEmail: strings.TrimSpace(c.ServiceAccountEmail),
		PrivateKey:          NormalizePrivateKey(c.PrivateKey),
		IssuerID:            strings.TrimSpace(c.IssuerID),
		ClassID:             strings.TrimSpace(c.ClassID),
		SaveURL:             strings.TrimRight(c.SaveURL, "/"),
		TokenURL:            c.TokenURL,
		APIBaseURL:          strings.TrimRight(c.APIBaseURL, "/"),
		Scope:               c.Scope,
		DefaultDisplayName:  c.DefaultDisplayName,
		ProgramName:         c.ProgramName,
		Origins:             append([]string(nil), c.Origins...),
	}
}

// NormalizePrivateKey turns literal "\n" sequences (env friendly) into newlines
// and strips surrounding quotes.
func NormalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	key = strings.ReplaceAll(key, `\r\n`, "\n")
	key = strings.ReplaceAll(key, `\n`, "\n")
	return strings.TrimSpace(key)
}

// Validate reports every missing or malformed credential at once. It does no
// crypto or network work.
func (c GoogleConfig) Validate() error {
	var details []errutil.Detail
	missing := func(field string) {
		details = append(details, errutil.Detail{Field: field, Message: "missing"})
	}

	if c.ServiceAccountEmail == "" {
		missing("service_account_email")
	}

	switch {
	case c.PrivateKey == "":
		missing("private_key")
	case !strings.Contains(c.PrivateKey, pemBeginMarker) || !strings.Contains(c.PrivateKey, pemEndMarker):
		details = append(details, errutil.Detail{Field: "private_key", Message: "missing PEM markers"})
	}

	if c.IssuerID == "" {
		missing("issuer_id")
	}

	switch {
	case c.ClassID == "":
		missing("class_id")
	case c.IssuerID != "" && !strings.HasPrefix(c.ClassID, c.IssuerID+"."):
		details = append(details, errutil.Detail{Field: "class_id", Message: "must start with issuer_id followed by a dot"})
	}

	if len(details) == 0 {
		return nil
	}

	be := errutil.BaseError{Details: details}
	return errutil.Configuration("google wallet is not configured", nil,
		errutil.WithDetails(details...),
		errutil.WithField("missing", be.FieldNames()),
	)
}
