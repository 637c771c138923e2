package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/cardwise-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	UserSvc         UserService
	CardSvc         cardService
	RecurringSvc    recurringService
	TransactionSvc  transactionService
	BudgetSvc       budgetService
	NotificationSvc notificationService
	ObligationSvc   obligationService
	BillingSvc      billingService
	Firebase        *auth.Client
}
