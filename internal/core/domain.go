package core

import (
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	Deposit    MovementKind = "deposit"
	Withdrawal MovementKind = "withdrawal"

	Payment PaymentKind = "payment"
	Charge  PaymentKind = "charge"

	Card     DebtType = "card"
	Loan     DebtType = "loan"
	Mortgage DebtType = "mortgage"
	Other    DebtType = "other"

	AnnualForecast  ForecastKind = "annual"
	MonthlyForecast ForecastKind = "monthly"
)

const (
	DefaultColor     = "#667eea"
	DefaultDebtColor = "#dc3545"

	maxNameLength        = 100
	maxDescriptionLength = 200
)

type (
	// Kind is the direction of a transaction or the kind of a category.
	Kind string

	MovementKind string
	PaymentKind  string
	DebtType     string
	ForecastKind string

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Kind  Kind   `json:"type"`
		Color string `json:"color"`
	}

	// CategoryRef is the compact form nested inside budgets.
	CategoryRef struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	Transaction struct {
		ID            int64     `json:"id"`
		Description   string    `json:"description"`
		Amount        Money     `json:"amount"`
		Kind          Kind      `json:"type"`
		CategoryID    int64     `json:"category_id"`
		CategoryName  string    `json:"category_name,omitempty"`
		CategoryColor string    `json:"category_color,omitempty"`
		Date          Date      `json:"date"`
		CreatedAt     time.Time `json:"created_at"`
	}

	SavingsAccount struct {
		ID             int64     `json:"id"`
		Name           string    `json:"name"`
		InitialBalance Money     `json:"initial_balance"`
		TargetAmount   Money     `json:"target_amount"`
		Color          string    `json:"color"`
		CreatedAt      time.Time `json:"created_at"`
	}

	SavingsMovement struct {
		ID           int64        `json:"id"`
		AccountID    int64        `json:"account_id"`
		Kind         MovementKind `json:"type"`
		Amount       Money        `json:"amount"`
		Description  string       `json:"description"`
		Date         Date         `json:"date"`
		CreatedAt    time.Time    `json:"created_at"`
		AccountName  string       `json:"account_name,omitempty"`
		AccountColor string       `json:"account_color,omitempty"`
	}

	DebtAccount struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		Type          DebtType  `json:"type"`
		InitialAmount Money     `json:"initial_amount"`
		InterestRate  float64   `json:"interest_rate"`
		Color         string    `json:"color"`
		CreatedAt     time.Time `json:"created_at"`
	}

	DebtPayment struct {
		ID          int64       `json:"id"`
		DebtID      int64       `json:"debt_id"`
		Kind        PaymentKind `json:"type"`
		Amount      Money       `json:"amount"`
		Description string      `json:"description"`
		Date        Date        `json:"date"`
		CreatedAt   time.Time   `json:"created_at"`
		DebtName    string      `json:"debt_name,omitempty"`
		DebtColor   string      `json:"debt_color,omitempty"`
	}

	Budget struct {
		ID         int64         `json:"id"`
		Name       string        `json:"name"`
		Amount     Money         `json:"amount"`
		Color      string        `json:"color"`
		Categories []CategoryRef `json:"categories"`
		CreatedAt  time.Time     `json:"created_at"`
	}

	// Forecast is an expected expense. Annual forecasts belong to one year or
	// recur every year; monthly forecasts optionally start at a given month.
	Forecast struct {
		ID            int64        `json:"id"`
		Description   string       `json:"description"`
		Amount        Money        `json:"amount"`
		CategoryID    int64        `json:"category_id"`
		CategoryName  string       `json:"category_name,omitempty"`
		CategoryColor string       `json:"category_color,omitempty"`
		ReminderDate  Date         `json:"reminder_date"`
		Year          *int         `json:"year"`
		Month         *int         `json:"month"`
		Notes         string       `json:"notes"`
		Completed     bool         `json:"completed"`
		Recurring     bool         `json:"is_recurring"`
		Kind          ForecastKind `json:"forecast_type"`
		CreatedAt     time.Time    `json:"created_at"`
	}
)

func (k Kind) Valid() bool { return k == Income || k == Expense }

func (k MovementKind) Valid() bool { return k == Deposit || k == Withdrawal }

func (k PaymentKind) Valid() bool { return k == Payment || k == Charge }

func (t DebtType) Valid() bool {
	switch t {
	case Card, Loan, Mortgage, Other:
		return true
	}
	return false
}

func (k ForecastKind) Valid() bool { return k == AnnualForecast || k == MonthlyForecast }

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return Validationf("name too long (max %d characters)", maxNameLength)
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLength {
		return Validationf("description too long (max %d characters)", maxDescriptionLength)
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(c.Color) == "" {
		return ErrEmptyColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return t.Date.Validate()
}

func (a SavingsAccount) Validate() error {
	if err := validateName(a.Name); err != nil {
		return err
	}
	if a.TargetAmount.Cents < 0 {
		return Validationf("target amount cannot be negative")
	}
	return nil
}

func (m SavingsMovement) Validate() error {
	if m.AccountID <= 0 {
		return Validationf("account is required")
	}
	if !m.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	return m.Date.Validate()
}

func (d DebtAccount) Validate() error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	if !d.Type.Valid() {
		return Validationf("invalid debt type %q", d.Type)
	}
	if d.InitialAmount.Cents < 0 {
		return Validationf("initial amount cannot be negative")
	}
	if d.InterestRate < 0 {
		return Validationf("interest rate cannot be negative")
	}
	return nil
}

func (p DebtPayment) Validate() error {
	if p.DebtID <= 0 {
		return Validationf("debt is required")
	}
	if !p.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return p.Date.Validate()
}

func (b Budget) Validate() error {
	if err := validateName(b.Name); err != nil {
		return err
	}
	// A zero cap is allowed; utilization reports 0 for it.
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize clears the fields that do not apply to the forecast's kind.
// Recurring annual forecasts and monthly forecasts carry no year.
func (f *Forecast) Normalize() {
	if f.Kind == AnnualForecast {
		f.Month = nil
		if f.Recurring {
			f.Year = nil
		}
	}
	if f.Kind == MonthlyForecast {
		f.Year = nil
	}
}

func (f Forecast) Validate() error {
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	if f.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := f.ReminderDate.Validate(); err != nil {
		return err
	}
	if !f.Kind.Valid() {
		return Validationf("invalid forecast type %q", f.Kind)
	}
	if f.Kind == AnnualForecast && !f.Recurring && f.Year == nil {
		return Validationf("year is required for non-recurring annual forecasts")
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		return ErrInvalidMonth
	}
	return nil
}
