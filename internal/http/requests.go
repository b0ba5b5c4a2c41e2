package http

import (
	"github.com/shopspring/decimal"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

// Request schemas. Amounts accept JSON numbers or decimal strings; Validate
// checks presence and parses, leaving domain rules to the core types.

func requiredAmount(d *decimal.Decimal) (core.Money, error) {
	if d == nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	m, err := core.MoneyFromDecimal(*d)
	if err != nil {
		return core.Money{}, err
	}
	if err := m.Validate(); err != nil {
		return core.Money{}, err
	}
	return m, nil
}

func optionalAmount(d *decimal.Decimal, field string) (core.Money, error) {
	if d == nil {
		return core.Money{}, nil
	}
	if d.IsNegative() {
		return core.Money{}, core.Validationf("%s cannot be negative", field)
	}
	return core.MoneyFromDecimal(*d)
}

func requiredDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, core.Validationf("date is required")
	}
	return core.ParseDate(s)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`

	category core.Category
}

func (req *categoryRequest) Validate() error {
	req.category = core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(req.Type),
		Color: sanitizeInput(req.Color),
	}
	if req.category.Name == "" {
		return core.ErrEmptyName
	}
	if !req.category.Kind.Valid() {
		return core.ErrInvalidKind
	}
	return nil
}

type transactionRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        string           `json:"type"`
	CategoryID  int64            `json:"category_id"`
	Date        string           `json:"date"`

	transaction core.Transaction
}

func (req *transactionRequest) Validate() error {
	amount, err := requiredAmount(req.Amount)
	if err != nil {
		return err
	}
	date, err := requiredDate(req.Date)
	if err != nil {
		return err
	}
	req.transaction = core.Transaction{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Kind:        core.Kind(req.Type),
		CategoryID:  req.CategoryID,
		Date:        date,
	}
	return req.transaction.Validate()
}

type savingsAccountRequest struct {
	Name           string           `json:"name"`
	Color          string           `json:"color"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
	TargetAmount   *decimal.Decimal `json:"target_amount"`

	account core.SavingsAccount
}

func (req *savingsAccountRequest) Validate() error {
	// The opening balance may be negative, e.g. an overdrawn account.
	var initial core.Money
	if req.InitialBalance != nil {
		m, err := core.MoneyFromDecimal(*req.InitialBalance)
		if err != nil {
			return err
		}
		initial = m
	}
	target, err := optionalAmount(req.TargetAmount, "target amount")
	if err != nil {
		return err
	}
	req.account = core.SavingsAccount{
		Name:           sanitizeInput(req.Name),
		Color:          sanitizeInput(req.Color),
		InitialBalance: initial,
		TargetAmount:   target,
	}
	return req.account.Validate()
}

type savingsMovementRequest struct {
	AccountID   int64            `json:"account_id"`
	Type        string           `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	Date        string           `json:"date"`

	movement core.SavingsMovement
}

func (req *savingsMovementRequest) Validate() error {
	amount, err := requiredAmount(req.Amount)
	if err != nil {
		return err
	}
	date, err := requiredDate(req.Date)
	if err != nil {
		return err
	}
	req.movement = core.SavingsMovement{
		AccountID:   req.AccountID,
		Kind:        core.MovementKind(req.Type),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
	return req.movement.Validate()
}

type debtRequest struct {
	Name          string           `json:"name"`
	Type          string           `json:"type"`
	Color         string           `json:"color"`
	InitialAmount *decimal.Decimal `json:"initial_amount"`
	InterestRate  *decimal.Decimal `json:"interest_rate"`

	debt core.DebtAccount
}

func (req *debtRequest) Validate() error {
	initial, err := optionalAmount(req.InitialAmount, "initial amount")
	if err != nil {
		return err
	}
	var rate float64
	if req.InterestRate != nil {
		if req.InterestRate.IsNegative() {
			return core.Validationf("interest rate cannot be negative")
		}
		rate = req.InterestRate.InexactFloat64()
	}
	req.debt = core.DebtAccount{
		Name:          sanitizeInput(req.Name),
		Type:          core.DebtType(req.Type),
		Color:         sanitizeInput(req.Color),
		InitialAmount: initial,
		InterestRate:  rate,
	}
	if req.debt.Name == "" {
		return core.ErrEmptyName
	}
	if req.debt.Type != "" && !req.debt.Type.Valid() {
		return core.Validationf("invalid debt type %q", req.debt.Type)
	}
	return nil
}

type debtPaymentRequest struct {
	DebtID      int64            `json:"debt_id"`
	Type        string           `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	Date        string           `json:"date"`

	payment core.DebtPayment
}

func (req *debtPaymentRequest) Validate() error {
	amount, err := requiredAmount(req.Amount)
	if err != nil {
		return err
	}
	date, err := requiredDate(req.Date)
	if err != nil {
		return err
	}
	req.payment = core.DebtPayment{
		DebtID:      req.DebtID,
		Kind:        core.PaymentKind(req.Type),
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
	return req.payment.Validate()
}

type budgetRequest struct {
	Name        string           `json:"name"`
	Amount      *decimal.Decimal `json:"amount"`
	Color       string           `json:"color"`
	CategoryIDs []int64          `json:"category_ids"`

	budget core.Budget
}

func (req *budgetRequest) Validate() error {
	if req.Amount == nil {
		return core.Validationf("amount is required")
	}
	amount, err := optionalAmount(req.Amount, "amount")
	if err != nil {
		return err
	}
	for _, id := range req.CategoryIDs {
		if id <= 0 {
			return core.Validationf("invalid category id %d", id)
		}
	}
	req.budget = core.Budget{
		Name:   sanitizeInput(req.Name),
		Amount: amount,
		Color:  sanitizeInput(req.Color),
	}
	return req.budget.Validate()
}

type forecastRequest struct {
	Description  string           `json:"description"`
	Amount       *decimal.Decimal `json:"amount"`
	CategoryID   int64            `json:"category_id"`
	ReminderDate string           `json:"reminder_date"`
	Year         *int             `json:"year"`
	Month        *int             `json:"month"`
	Notes        string           `json:"notes"`
	Completed    bool             `json:"completed"`
	Recurring    bool             `json:"is_recurring"`
	Type         string           `json:"forecast_type"`

	forecast core.Forecast
}

func (req *forecastRequest) Validate() error {
	amount, err := requiredAmount(req.Amount)
	if err != nil {
		return err
	}
	if req.ReminderDate == "" {
		return core.Validationf("reminder date is required")
	}
	reminder, err := core.ParseDate(req.ReminderDate)
	if err != nil {
		return err
	}
	kind := core.ForecastKind(req.Type)
	if kind == "" {
		kind = core.AnnualForecast
	}
	req.forecast = core.Forecast{
		Description:  sanitizeInput(req.Description),
		Amount:       amount,
		CategoryID:   req.CategoryID,
		ReminderDate: reminder,
		Year:         req.Year,
		Month:        req.Month,
		Notes:        sanitizeInput(req.Notes),
		Completed:    req.Completed,
		Recurring:    req.Recurring,
		Kind:         kind,
	}
	if req.Year != nil {
		if err := core.ValidateYear(*req.Year); err != nil {
			return err
		}
	}
	req.forecast.Normalize()
	return req.forecast.Validate()
}

type deleteAllRequest struct {
	Confirm string `json:"confirm"`
}

func (req *deleteAllRequest) Validate() error {
	if req.Confirm == "" {
		return core.Validationf("confirmation is required")
	}
	return nil
}
