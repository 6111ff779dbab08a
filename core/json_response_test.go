package core_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitdesk/visitdesk/core"
	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

func render(t *testing.T, resp core.Response) (*httptest.ResponseRecorder, core.JSONResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, resp.Render(rec, req))

	var body core.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestJSON(t *testing.T) {
	t.Parallel()

	rec, body := render(t, core.JSON("subscription_status", map[string]any{"plan": "monthly"}, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "subscription_status", body.Code)
	assert.NotNil(t, body.Data)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("limit error maps to payment required", func(t *testing.T) {
		t.Parallel()

		err := &subscription.LimitError{
			Resource: plan.ResourceAppointments,
			Reason:   subscription.ReasonLimitReached,
		}
		rec, body := render(t, core.JSONError(err))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "plan_limit_reached", body.Error.Code)
		assert.Contains(t, body.Error.Message, "purchase an add-on")
	})

	t.Run("expired subscription", func(t *testing.T) {
		t.Parallel()

		err := &subscription.LimitError{
			Resource: plan.ResourceVisitors,
			Reason:   subscription.ReasonExpired,
		}
		rec, body := render(t, core.JSONError(err))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, "subscription_expired", body.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSONError(subscription.ErrRecordNotFound))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body.Error.Code)
	})

	t.Run("module gate", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSONError(subscription.ErrModuleNotIncluded))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "forbidden", body.Error.Code)
	})

	t.Run("duplicate payment", func(t *testing.T) {
		t.Parallel()

		rec, _ := render(t, core.JSONError(subscription.ErrDuplicatePayment))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown error is redacted", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSONError(errors.New("pq: connection refused")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, body.Error.Message, "connection refused")
	})

	t.Run("validation error carries details", func(t *testing.T) {
		t.Parallel()

		valErr := core.NewValidationError()
		valErr.Add("plan_type", "unknown plan type")

		rec, body := render(t, core.JSONError(valErr))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"unknown plan type"}, body.Error.Details["plan_type"])
	})

	t.Run("http error passthrough", func(t *testing.T) {
		t.Parallel()

		rec, body := render(t, core.JSONError(core.ErrUnauthorized))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", body.Error.Code)
	})
}
