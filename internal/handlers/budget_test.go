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

type stubBudgetService struct {
	lastID    string
	createReq dto.CreateBudgetRequest
	updateReq dto.UpdateBudgetRequest
	err       error
}

func (s *stubBudgetService) CreateBudget(_ context.Context, _ string, req dto.CreateBudgetRequest) (dto.BudgetView, error) {
	s.createReq = req
	return dto.BudgetView{Budget: &models.Budget{BudgetID: "b1"}}, s.err
}

func (s *stubBudgetService) GetBudget(_ context.Context, _, id string) (dto.BudgetView, error) {
	s.lastID = id
	return dto.BudgetView{Budget: &models.Budget{BudgetID: id}, Status: dto.BudgetStatus{Status: dto.BudgetWarning}}, s.err
}

func (s *stubBudgetService) ListBudgets(context.Context, string) ([]dto.BudgetView, error) {
	return []dto.BudgetView{}, s.err
}

func (s *stubBudgetService) UpdateBudget(_ context.Context, _, id string, req dto.UpdateBudgetRequest) (dto.BudgetView, error) {
	s.lastID, s.updateReq = id, req
	return dto.BudgetView{Budget: &models.Budget{BudgetID: id}}, s.err
}

func (s *stubBudgetService) DeleteBudget(_ context.Context, _, id string) error {
	s.lastID = id
	return s.err
}

func TestCreateBudget_OK(t *testing.T) {
	svc := &stubBudgetService{}
	resp := &stubResponseHandler{}
	h := NewBudgetHandlers(&Deps{ResponseHandler: resp, BudgetSvc: svc})

	body := `{"name":"Food","category":"food","amount":400,"period":"monthly","alertThreshold":80}`
	req := withUID(httptest.NewRequest(http.MethodPost, "/budgets", strings.NewReader(body)), "uid1")
	h.CreateBudget(httptest.NewRecorder(), req)

	if resp.writeSuccessStatus != http.StatusCreated || svc.createReq.AlertThreshold != 80 {
		t.Fatalf("unexpected result: status=%d req=%+v", resp.writeSuccessStatus, svc.createReq)
	}
}

func TestGetBudget_ReturnsStatus(t *testing.T) {
	svc := &stubBudgetService{}
	resp := &stubResponseHandler{}
	h := NewBudgetHandlers(&Deps{ResponseHandler: resp, BudgetSvc: svc})

	req := withChiParam(withUID(httptest.NewRequest(http.MethodGet, "/budgets/b1", nil), "uid1"), "budgetId", "b1")
	h.GetBudget(httptest.NewRecorder(), req)

	view, ok := resp.writeSuccessData.(dto.BudgetView)
	if !ok || view.BudgetID != "b1" || view.Status.Status != dto.BudgetWarning {
		t.Fatalf("unexpected data: %#v", resp.writeSuccessData)
	}
}

func TestUpdateBudget_NotFound(t *testing.T) {
	svc := &stubBudgetService{err: errs.NewNotFoundError("budget not found")}
	resp := &stubResponseHandler{}
	h := NewBudgetHandlers(&Deps{ResponseHandler: resp, BudgetSvc: svc})

	req := httptest.NewRequest(http.MethodPut, "/budgets/b9", strings.NewReader(`{"amount":500}`))
	req = withChiParam(withUID(req, "uid1"), "budgetId", "b9")
	h.UpdateBudget(httptest.NewRecorder(), req)

	if _, ok := resp.handleError.(*errs.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", resp.handleError)
	}
	if svc.lastID != "b9" || svc.updateReq.Amount == nil || *svc.updateReq.Amount != 500 {
		t.Fatalf("unexpected update: id=%q req=%+v", svc.lastID, svc.updateReq)
	}
}
