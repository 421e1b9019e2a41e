package render_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/granttrack/internal/apperr"
	"github.com/MrJamesThe3rd/granttrack/internal/candidate"
	"github.com/MrJamesThe3rd/granttrack/internal/http/render"
)

func TestError(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}

	tests := []testCase{
		{
			name:       "validation",
			err:        apperr.Validation("award_amount", "must be positive"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantField:  "award_amount",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("load candidate: %w", apperr.NotFound("candidate", id)),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "invalid transition",
			err:        apperr.InvalidTransition("candidate", id, "approve", candidate.SubmissionDraft),
			wantStatus: http.StatusConflict,
			wantCode:   "invalid_state_transition",
		},
		{
			name:       "insufficient funds",
			err:        &apperr.InsufficientFundsError{CycleID: id, Requested: 500, Remaining: 100},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "insufficient_funds",
		},
		{
			name:       "version conflict",
			err:        apperr.Conflict("candidate", id),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "unexpected",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/candidates", nil)

			render.Error(rec, req, tt.err)

			var body struct {
				Error   string `json:"error"`
				Message string `json:"message"`
				Field   string `json:"field"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestDecode_RejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))

	var v map[string]any
	err := render.Decode(req, &v)

	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "body", validation.Field)
}

func TestQueryID(t *testing.T) {
	id := uuid.New()

	got, err := render.QueryID(httptest.NewRequest(http.MethodGet, "/?grant_cycle_id="+id.String(), nil), "grant_cycle_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	got, err = render.QueryID(httptest.NewRequest(http.MethodGet, "/", nil), "grant_cycle_id")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = render.QueryID(httptest.NewRequest(http.MethodGet, "/?grant_cycle_id=nope", nil), "grant_cycle_id")
	assert.Error(t, err)
}
