package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

func testLogger() *slog.Logger {
	return logger.New("", logger.NewTestHandler)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// memDB is an in-memory stand-in for one user's documents. Every mutating method
// works on copies and only stores them when the callback succeeds, like a
// Firestore transaction.
type memDB struct {
	mu        sync.Mutex
	cards     map[string]*models.Card
	recurring map[string]*models.RecurringExpense
	budgets   map[string]*models.Budget
	txs       []*models.Transaction

	listErr    error
	chargeErrs map[string]error
	updateErrs map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		cards:      map[string]*models.Card{},
		recurring:  map[string]*models.RecurringExpense{},
		budgets:    map[string]*models.Budget{},
		chargeErrs: map[string]error{},
		updateErrs: map[string]error{},
	}
}

func (db *memDB) addCard(c models.Card) {
	db.cards[c.CardID] = &c
}

func (db *memDB) addRecurring(e models.RecurringExpense) {
	db.recurring[e.ID] = &e
}

func (db *memDB) addBudget(b models.Budget) {
	db.budgets[b.BudgetID] = &b
}

func (db *memDB) card(id string) models.Card {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.cards[id]
}

func (db *memDB) expense(id string) models.RecurringExpense {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.recurring[id]
}

func (db *memDB) budget(id string) models.Budget {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.budgets[id]
}

func (db *memDB) applyBudgets(txs []*models.Transaction, apply dto.BudgetFunc) []dto.BudgetChange {
	if apply == nil {
		return nil
	}
	ids := make([]string, 0, len(db.budgets))
	for id := range db.budgets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []dto.BudgetChange
	for _, id := range ids {
		b := *db.budgets[id]
		touched := false
		for _, t := range txs {
			if t.CountsTowardBudget() && t.Category != "" && t.Category == b.Category {
				apply(&b, t)
				touched = true
			}
		}
		if touched {
			out = append(out, dto.BudgetChange{Budget: &b, PreviousSpent: db.budgets[id].Spent})
			db.budgets[id] = &b
		}
	}
	return out
}

type memRecurring struct{ db *memDB }

func (m memRecurring) Create(_ context.Context, uid string, e *models.RecurringExpense) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.recurring[e.ID]; ok {
		return errs.NewAlreadyExistsError("recurring expense already exists")
	}
	cp := *e
	m.db.recurring[e.ID] = &cp
	return nil
}

func (m memRecurring) Get(_ context.Context, uid, id string) (*models.RecurringExpense, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	e, ok := m.db.recurring[id]
	if !ok {
		return nil, errs.NewNotFoundError("recurring expense not found")
	}
	cp := *e
	return &cp, nil
}

func (m memRecurring) List(_ context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.listErr != nil {
		return nil, m.db.listErr
	}
	out := []*models.RecurringExpense{}
	for _, e := range m.db.recurring {
		if activeOnly && !e.IsActive {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memRecurring) Update(_ context.Context, uid, id string, fn func(*models.RecurringExpense) error) (*models.RecurringExpense, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.updateErrs[id]; err != nil {
		return nil, err
	}
	e, ok := m.db.recurring[id]
	if !ok {
		return nil, errs.NewNotFoundError("recurring expense not found")
	}
	cp := *e
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.db.recurring[id] = &cp
	out := cp
	return &out, nil
}

func (m memRecurring) Delete(_ context.Context, uid, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.recurring, id)
	return nil
}

type memCards struct{ db *memDB }

func (m memCards) Create(_ context.Context, uid string, c *models.Card) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cp := *c
	m.db.cards[c.CardID] = &cp
	return nil
}

func (m memCards) Get(_ context.Context, uid, id string) (*models.Card, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.cards[id]
	if !ok {
		return nil, errs.NewNotFoundError("card not found")
	}
	cp := *c
	return &cp, nil
}

func (m memCards) List(_ context.Context, uid string) ([]*models.Card, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.listErr != nil {
		return nil, m.db.listErr
	}
	out := []*models.Card{}
	for _, c := range m.db.cards {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out, nil
}

func (m memCards) Update(_ context.Context, uid, id string, fn func(*models.Card) error) (*models.Card, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.updateErrs[id]; err != nil {
		return nil, err
	}
	c, ok := m.db.cards[id]
	if !ok {
		return nil, errs.NewNotFoundError("card not found")
	}
	cp := *c
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.db.cards[id] = &cp
	out := cp
	return &out, nil
}

func (m memCards) Delete(_ context.Context, uid, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.cards, id)
	return nil
}

type memBudgets struct{ db *memDB }

func (m memBudgets) Create(_ context.Context, uid string, b *models.Budget) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cp := *b
	m.db.budgets[b.BudgetID] = &cp
	return nil
}

func (m memBudgets) Get(_ context.Context, uid, id string) (*models.Budget, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	b, ok := m.db.budgets[id]
	if !ok {
		return nil, errs.NewNotFoundError("budget not found")
	}
	cp := *b
	return &cp, nil
}

func (m memBudgets) List(_ context.Context, uid string) ([]*models.Budget, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []*models.Budget{}
	for _, b := range m.db.budgets {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BudgetID < out[j].BudgetID })
	return out, nil
}

func (m memBudgets) Update(_ context.Context, uid, id string, fn func(*models.Budget) error) (*models.Budget, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	b, ok := m.db.budgets[id]
	if !ok {
		return nil, errs.NewNotFoundError("budget not found")
	}
	cp := *b
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.db.budgets[id] = &cp
	out := cp
	return &out, nil
}

func (m memBudgets) Delete(_ context.Context, uid, id string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.budgets, id)
	return nil
}

type memLedger struct{ db *memDB }

func (m memLedger) ChargeRecurring(_ context.Context, uid, id string, charge dto.ChargeFunc, apply dto.BudgetFunc) (*dto.LedgerResult, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.chargeErrs[id]; err != nil {
		return nil, err
	}
	e, ok := m.db.recurring[id]
	if !ok {
		return nil, errs.NewNotFoundError("recurring expense not found")
	}
	c, ok := m.db.cards[e.CardID]
	if !ok {
		return nil, errs.NewNotFoundError("card not found")
	}
	exp, card := *e, *c
	t, err := charge(&exp, &card)
	if err != nil {
		return nil, err
	}
	t.UserID = uid
	m.db.recurring[id] = &exp
	m.db.cards[card.CardID] = &card
	m.db.txs = append(m.db.txs, t)
	txs := []*models.Transaction{t}
	return &dto.LedgerResult{Transactions: txs, Budgets: m.db.applyBudgets(txs, apply)}, nil
}

func (m memLedger) PayCard(_ context.Context, uid, cardID string, pay dto.PaymentFunc) (*dto.LedgerResult, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if err := m.db.chargeErrs[cardID]; err != nil {
		return nil, err
	}
	c, ok := m.db.cards[cardID]
	if !ok {
		return nil, errs.NewNotFoundError("card not found")
	}
	f, ok := m.db.cards[c.PaymentDebitCardID]
	if !ok {
		return nil, errs.NewNotFoundError("funding card not found")
	}
	credit, funding := *c, *f
	txs, err := pay(&credit, &funding)
	if err != nil {
		return nil, err
	}
	m.db.cards[credit.CardID] = &credit
	if len(txs) > 0 {
		m.db.cards[funding.CardID] = &funding
	}
	for _, t := range txs {
		t.UserID = uid
	}
	m.db.txs = append(m.db.txs, txs...)
	return &dto.LedgerResult{Transactions: txs}, nil
}

func (m memLedger) Record(_ context.Context, uid string, t *models.Transaction, apply dto.BudgetFunc) (*dto.LedgerResult, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	c, ok := m.db.cards[t.CardID]
	if !ok {
		return nil, errs.NewNotFoundError("card not found")
	}
	card := *c
	card.Balance += t.BalanceDelta()
	m.db.cards[card.CardID] = &card
	t.UserID = uid
	m.db.txs = append(m.db.txs, t)
	txs := []*models.Transaction{t}
	return &dto.LedgerResult{Transactions: txs, Budgets: m.db.applyBudgets(txs, apply)}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []*models.Notification
	emails []string
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, uid, email string, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	f.emails = append(f.emails, email)
	return nil
}

func (f *fakeNotifier) ofType(typ string) []*models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}
