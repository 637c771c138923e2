package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

type stubRecurringService struct {
	activeOnly bool
	hard       bool
	lastID     string
	createReq  dto.CreateRecurringRequest
	calls      int
}

func (s *stubRecurringService) CreateRecurring(_ context.Context, _ string, req dto.CreateRecurringRequest) (*models.RecurringExpense, error) {
	s.calls++
	s.createReq = req
	return &models.RecurringExpense{ID: "r1", Name: req.Name}, nil
}

func (s *stubRecurringService) GetRecurring(_ context.Context, _, id string) (*models.RecurringExpense, error) {
	s.calls++
	s.lastID = id
	return &models.RecurringExpense{ID: id}, nil
}

func (s *stubRecurringService) ListRecurring(_ context.Context, _ string, activeOnly bool) ([]*models.RecurringExpense, error) {
	s.calls++
	s.activeOnly = activeOnly
	return []*models.RecurringExpense{}, nil
}

func (s *stubRecurringService) UpdateRecurring(_ context.Context, _, id string, _ dto.UpdateRecurringRequest) (*models.RecurringExpense, error) {
	s.calls++
	s.lastID = id
	return &models.RecurringExpense{ID: id}, nil
}

func (s *stubRecurringService) DeleteRecurring(_ context.Context, _, id string, hard bool) error {
	s.calls++
	s.lastID, s.hard = id, hard
	return nil
}

func TestListRecurring_ActiveFilter(t *testing.T) {
	svc := &stubRecurringService{}
	resp := &stubResponseHandler{}
	h := NewRecurringHandlers(&Deps{ResponseHandler: resp, RecurringSvc: svc})

	req := withUID(httptest.NewRequest(http.MethodGet, "/recurring?active=true", nil), "uid1")
	h.ListRecurring(httptest.NewRecorder(), req)

	if !svc.activeOnly || !resp.writeSuccessCalled {
		t.Fatalf("expected active filter to reach the service")
	}
}

func TestListRecurring_BadFilter(t *testing.T) {
	svc := &stubRecurringService{}
	resp := &stubResponseHandler{}
	h := NewRecurringHandlers(&Deps{ResponseHandler: resp, RecurringSvc: svc})

	req := withUID(httptest.NewRequest(http.MethodGet, "/recurring?active=maybe", nil), "uid1")
	h.ListRecurring(httptest.NewRecorder(), req)

	if _, ok := resp.handleError.(*errs.ValidationError); !ok || svc.calls != 0 {
		t.Fatalf("expected ValidationError without a service call, got %v", resp.handleError)
	}
}

func TestCreateRecurring_OK(t *testing.T) {
	svc := &stubRecurringService{}
	resp := &stubResponseHandler{}
	h := NewRecurringHandlers(&Deps{ResponseHandler: resp, RecurringSvc: svc})

	body := `{"name":"Rent","amount":1200,"cardId":"d1","frequency":"monthly","dayOfMonth":31}`
	req := withUID(httptest.NewRequest(http.MethodPost, "/recurring", strings.NewReader(body)), "uid1")
	h.CreateRecurring(httptest.NewRecorder(), req)

	if resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.writeSuccessStatus)
	}
	if svc.createReq.DayOfMonth != 31 || svc.createReq.Amount != 1200 {
		t.Fatalf("unexpected request: %+v", svc.createReq)
	}
}

func TestDeleteRecurring_HardFlag(t *testing.T) {
	tests := []struct {
		url  string
		hard bool
	}{
		{"/recurring/r1", false},
		{"/recurring/r1?hard=true", true},
	}
	for _, tt := range tests {
		svc := &stubRecurringService{}
		h := NewRecurringHandlers(&Deps{ResponseHandler: &stubResponseHandler{}, RecurringSvc: svc})

		req := withChiParam(withUID(httptest.NewRequest(http.MethodDelete, tt.url, nil), "uid1"), "id", "r1")
		h.DeleteRecurring(httptest.NewRecorder(), req)

		if svc.lastID != "r1" || svc.hard != tt.hard {
			t.Fatalf("%s: id=%q hard=%v", tt.url, svc.lastID, svc.hard)
		}
	}
}
