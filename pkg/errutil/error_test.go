package errutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseErrorJSONMergesFields(t *testing.T) {
	err := ValidationFailed("customerData.id is required", nil,
		WithField("required", []string{"customerData.id"}),
		WithField("error", "ignored"),
	)

	be, ok := As(err)
	require.True(t, ok)

	body := be.JSON()
	require.Equal(t, "customerData.id is required", body["error"])
	require.Equal(t, []string{"customerData.id"}, body["required"])
	require.NotContains(t, body, "details")
}

func TestConstructorsWrapCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("failed to update ledger", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection refused")
	require.True(t, Is(err, StatusInternal))
}

func TestAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("issue pass: %w", Configuration("wallet credentials missing", nil,
		WithDetails(Detail{Field: "issuer_id", Message: "missing"}, Detail{Field: "class_id", Message: "missing"}),
	))

	be, ok := As(err)
	require.True(t, ok)
	require.Equal(t, []string{"issuer_id", "class_id"}, be.FieldNames())
	require.Equal(t, http.StatusInternalServerError, be.Code.HTTPStatus())
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[CoreStatus]int{
		StatusBadRequest:       http.StatusBadRequest,
		StatusValidationFailed: http.StatusBadRequest,
		StatusUnauthorized:     http.StatusUnauthorized,
		StatusForbidden:        http.StatusForbidden,
		StatusNotFound:         http.StatusNotFound,
		StatusBadGateway:       http.StatusBadGateway,
		StatusConfiguration:    http.StatusInternalServerError,
		StatusUnknown:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, code.HTTPStatus(), string(code))
	}
}
