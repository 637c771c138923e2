package services

import (
	"context"
	"fmt"
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

type userUSStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, uid string) (*models.User, error)
	UpdatePreferences(ctx context.Context, uid string, currency, theme *string) error
	TouchActivity(ctx context.Context, uid string, at time.Time) error
}

type userService struct {
	Store    userUSStore
	clockNow func() time.Time
}

func NewUserService(store userUSStore) *userService {
	return &userService{
		Store:    store,
		clockNow: time.Now,
	}
}

var themes = map[string]bool{"light": true, "dark": true, "system": true}

func (s *userService) CreateUser(ctx context.Context, uid, email, first, last string) error {
	// Get logger from context - already has uid, email, request_id, method, path
	log := logger.FromContext(ctx)

	now := s.clockNow()
	user := &models.User{
		UID:          uid,
		Email:        email,
		FirstName:    first,
		LastName:     last,
		Currency:     "USD",
		Theme:        "system",
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.Store.CreateUser(ctx, user)
	if err != nil {
		log.Error("failed to create user in store", "error", err)
		return err
	}

	log.Info("user created successfully", "first_name", first, "last_name", last)
	log.Debug("user created with full details", "user", user)

	return nil
}

func (s *userService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	return s.Store.GetUser(ctx, uid)
}

func (s *userService) UpdatePreferences(ctx context.Context, uid string, req dto.PreferencesRequest) (*models.User, error) {
	if req.Currency == nil && req.Theme == nil {
		return nil, errs.NewValidationError("nothing to update")
	}
	if req.Currency != nil {
		code, err := money.ParseCurrency(*req.Currency)
		if err != nil {
			return nil, errs.NewValidationError(fmt.Sprintf("unknown currency %q", *req.Currency))
		}
		req.Currency = &code
	}
	if req.Theme != nil && !themes[*req.Theme] {
		return nil, errs.NewValidationError("theme must be one of: light, dark, system")
	}

	if err := s.Store.UpdatePreferences(ctx, uid, req.Currency, req.Theme); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("preferences updated")
	return s.Store.GetUser(ctx, uid)
}

// TouchActivity stamps the user's last activity. It is skipped while the quota
// breaker is open and never fails the request.
func (s *userService) TouchActivity(ctx context.Context, uid string) {
	br := breaker.FromContext(ctx)
	if !br.Allow() {
		return
	}
	err := s.Store.TouchActivity(ctx, uid, s.clockNow())
	br.Record(err)
	if err != nil {
		logger.FromContext(ctx).Debug("failed to update last activity", "error", err)
	}
}
