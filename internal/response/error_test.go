package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/pkg/helpers"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

func TestHandleErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", errs.NewNotFoundError("card not found"), http.StatusNotFound, "not_found"},
		{"exists", errs.NewAlreadyExistsError("user exists"), http.StatusConflict, "already_exists"},
		{"validation", errs.NewValidationError("bad"), http.StatusBadRequest, "invalid_input"},
		{"insufficient", errs.NewInsufficientFundsError(100, 40, 60), http.StatusUnprocessableEntity, "insufficient_funds"},
		{"processed", errs.NewAlreadyProcessedError("done"), http.StatusConflict, "already_processed"},
		{"database", errs.NewDatabaseError("read", "boom", errors.New("x")), http.StatusInternalServerError, "internal_error"},
		{"transient", errs.NewExternalServiceError("stripe", "rate limited", true, nil), http.StatusServiceUnavailable, "service_unavailable"},
		{"upstream", errs.NewExternalServiceError("stripe", "bad request", false, nil), http.StatusBadGateway, "service_unavailable"},
		{"bad json", json.NewDecoder(strings.NewReader("{")).Decode(&struct{}{}), http.StatusBadRequest, "invalid_input"},
		{"unknown", errors.New("surprise"), http.StatusInternalServerError, "internal_error"},
	}

	h := New(logger.New("", logger.NewTestHandler))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(helpers.TestCtx())
			rr := httptest.NewRecorder()
			h.HandleError(rr, req, tt.err)

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.code {
				t.Fatalf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	h := New(logger.New("", logger.NewTestHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	h.WriteSuccess(rr, req, http.StatusCreated, map[string]string{"id": "c1"})

	if rr.Code != http.StatusCreated || rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response: %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"success":true,"data":{"id":"c1"}}` {
		t.Fatalf("body = %s", got)
	}
}
