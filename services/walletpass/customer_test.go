package walletpass

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"smallbiznis-stampcard/pkg/errutil"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIDOnlyDefaults(t *testing.T) {
	in := &CustomerInput{ID: 42}

	c, err := in.Normalize("Cliente")
	require.NoError(t, err)
	require.Equal(t, "42", c.ID)
	require.Equal(t, "Cliente", c.Name)
	require.Zero(t, c.CashbackPoints)
	require.Zero(t, c.Stamps)
	require.True(t, c.CreatedAt.IsZero())
}

func TestNormalizeCoercesLooseValues(t *testing.T) {
	var in CustomerInput
	dec := json.NewDecoder(strings.NewReader(`{"id":9007199254740993,"name":"  Ana ","cashbackPoints":"12.9","stamps":-4,"createdAt":"2026-03-01T10:00:00Z"}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&in))

	c, err := in.Normalize("Cliente")
	require.NoError(t, err)
	require.Equal(t, "9007199254740993", c.ID)
	require.Equal(t, "Ana", c.Name)
	require.Equal(t, int64(12), c.CashbackPoints)
	require.Zero(t, c.Stamps)
	require.Equal(t, 2026, c.CreatedAt.Year())
}

func TestNormalizeRejectsNonFinite(t *testing.T) {
	in := &CustomerInput{ID: "abc", CashbackPoints: math.Inf(1), Stamps: math.NaN()}
	c, err := in.Normalize("Cliente")
	require.NoError(t, err)
	require.Zero(t, c.CashbackPoints)
	require.Zero(t, c.Stamps)

	in = &CustomerInput{ID: "abc", CashbackPoints: "lots", Stamps: []int{1}}
	c, err = in.Normalize("Cliente")
	require.NoError(t, err)
	require.Zero(t, c.CashbackPoints)
	require.Zero(t, c.Stamps)
}

func TestNormalizeMissingID(t *testing.T) {
	for _, in := range []*CustomerInput{nil, {}, {ID: "   "}, {Name: "Ana"}} {
		_, err := in.Normalize("Cliente")
		require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

		be, _ := errutil.As(err)
		require.Equal(t, []string{"customerData.id"}, be.JSON()["required"])
	}
}

func TestObjectIDIsDeterministic(t *testing.T) {
	require.Equal(t, "abc-123_5fx.y", ObjectSuffix("abc-123_x.y"))
	require.Equal(t, "user_4042_2bmail.com", ObjectSuffix("user@42+mail.com"))
	require.Equal(t, testIssuerID+".42", ObjectID(testIssuerID, "42"))
	require.Equal(t, ObjectID(testIssuerID, "a b"), ObjectID(testIssuerID, "a b"))
}

func TestObjectSuffixKeepsIDsDistinct(t *testing.T) {
	ids := []string{"a b", "a@b", "a_b", "a_20b", "a_40b", "ab", "café"}
	seen := map[string]string{}
	for _, id := range ids {
		suffix := ObjectSuffix(id)
		require.Regexp(t, `^[A-Za-z0-9._-]+$`, suffix)
		if other, ok := seen[suffix]; ok {
			t.Fatalf("%q and %q share suffix %q", other, id, suffix)
		}
		seen[suffix] = id
	}
	require.Equal(t, "a_20b", ObjectSuffix("a b"))
	require.Equal(t, "a_5f20b", ObjectSuffix("a_20b"))
}

func TestNormalizeCapsLargeCounts(t *testing.T) {
	in := &CustomerInput{ID: "c1", CashbackPoints: 3e9, Stamps: "99999999999"}
	cust, err := in.Normalize("Cliente")
	require.NoError(t, err)
	require.Equal(t, int64(math.MaxInt32), cust.CashbackPoints)
	require.Equal(t, math.MaxInt32, cust.Stamps)
}
