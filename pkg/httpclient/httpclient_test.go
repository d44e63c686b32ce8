package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSetsUserAgentAndDefaultTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.UserAgent()))
	}))
	defer srv.Close()

	c := New("sprites", 0)
	require.Equal(t, defaultTimeout, c.GetClient().Timeout)

	resp, err := c.R().Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, "stampcard/sprites", resp.String())

	require.Equal(t, 2*time.Second, New("x", 2*time.Second).GetClient().Timeout)
}
