package walletpass

import (
	"fmt"
	"strings"
)

// ObjectSuffix derives the pass object suffix from a customer id. Bytes outside
// [A-Za-z0-9.-] are written as "_xx" lowercase hex, '_' included, so distinct
// ids never share a suffix.
func ObjectSuffix(customerID string) string {
	var b strings.Builder
	b.Grow(len(customerID))
	for i := 0; i < len(customerID); i++ {
		c := customerID[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

// ObjectID is "<issuerID>.<suffix>". It is recomputed on every update, never stored.
func ObjectID(issuerID, customerID string) string {
	return issuerID + "." + ObjectSuffix(customerID)
}
