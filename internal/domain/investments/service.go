// Package investments tracks the household's positions (crypto, funds,
// shares) and the buy, sell and adjustment operations on them.
package investments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/family-finance-tracker/pkg/money"
)

var (
	ErrInvestmentNotFound   = errors.New("investment not found")
	ErrOperationNotFound    = errors.New("investment operation not found")
	ErrInsufficientHoldings = errors.New("cannot sell more than is held")
	ErrInvalidOperationType = errors.New("operation type must be COMPRA, VENTA or AJUSTE")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("investment name is required")
	ErrEmptyType            = errors.New("investment type is required")
	ErrInvalidCurrency      = errors.New("invalid currency code")
)

// Store is the persistence surface the service needs
type Store interface {
	List(ctx context.Context) ([]Investment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Investment, error)
	Create(ctx context.Context, inv *Investment) error
	Update(ctx context.Context, inv *Investment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Totals(ctx context.Context) ([]CurrencyTotal, error)
	ListOperations(ctx context.Context, investmentID *uuid.UUID) ([]Operation, error)
	GetOperation(ctx context.Context, id uuid.UUID) (*Operation, error)
	RunInTx(ctx context.Context, fn func(HoldingsStore) error) error
}

// HoldingsStore is the transactional surface used when operations change
// the held quantity.
type HoldingsStore interface {
	LockInvestment(ctx context.Context, id uuid.UUID) (*Investment, error)
	GetOperation(ctx context.Context, id uuid.UUID) (*Operation, error)
	Operations(ctx context.Context, investmentID uuid.UUID) ([]Operation, error)
	CreateOperation(ctx context.Context, op *Operation) error
	UpdateOperation(ctx context.Context, op *Operation) error
	DeleteOperation(ctx context.Context, id uuid.UUID) error
	SetCurrentAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// Input describes a new investment. Holding is the quantity of units owned
// when the investment is recorded.
type Input struct {
	Type     string
	Name     string
	Invested decimal.Decimal
	Value    decimal.Decimal
	Holding  decimal.Decimal
	Currency string
	Date     time.Time
	PersonID *uuid.UUID
	Notes    string
}

// Changes lists the fields to overwrite; nil fields are left alone.
type Changes struct {
	Type     *string
	Name     *string
	Invested *decimal.Decimal
	Value    *decimal.Decimal
	Currency *string
	Date     *time.Time
	Notes    *string
}

// OperationInput describes a new operation
type OperationInput struct {
	InvestmentID uuid.UUID
	Type         OperationType
	Amount       decimal.Decimal
	Price        *decimal.Decimal
	Note         string
}

// OperationChanges lists the operation fields to overwrite
type OperationChanges struct {
	Type   *OperationType
	Amount *decimal.Decimal
	Price  *decimal.Decimal
	Note   *string
}

// Position is the portfolio result for one currency
type Position struct {
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"value"`
	Invested decimal.Decimal `json:"invested"`
	Profit   decimal.Decimal `json:"profit"`
	Count    int             `json:"count"`
	Display  struct {
		Value    string `json:"value"`
		Invested string `json:"invested"`
		Profit   string `json:"profit"`
	} `json:"display"`
}

// Service provides investment management
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new investment service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Investment, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Investment, error) {
	return s.store.GetByID(ctx, id)
}

// Create validates in and stores it. The currency defaults to ARS and the
// date to now.
func (s *Service) Create(ctx context.Context, in Input) (*Investment, error) {
	inv := &Investment{
		Type:           strings.TrimSpace(in.Type),
		Name:           strings.Join(strings.Fields(in.Name), " "),
		Invested:       in.Invested,
		Value:          in.Value,
		OriginalAmount: in.Holding,
		CurrentAmount:  in.Holding,
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		Date:           in.Date,
		PersonID:       in.PersonID,
		Notes:          optional(in.Notes),
	}
	if inv.Currency == "" {
		inv.Currency = money.ARS
	}
	if inv.Date.IsZero() {
		inv.Date = s.now()
	}
	inv.Date = inv.Date.UTC()

	if err := validate(inv); err != nil {
		return nil, err
	}
	if in.Holding.IsNegative() {
		return nil, fmt.Errorf("%w: holding cannot be negative", ErrInvalidAmount)
	}

	if err := s.store.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("investment created",
		slog.String("id", inv.ID.String()),
		slog.String("name", inv.Name),
		slog.String("type", inv.Type),
	)
	return inv, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, c Changes) (*Investment, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Type != nil {
		inv.Type = strings.TrimSpace(*c.Type)
	}
	if c.Name != nil {
		inv.Name = strings.Join(strings.Fields(*c.Name), " ")
	}
	if c.Invested != nil {
		inv.Invested = *c.Invested
	}
	if c.Value != nil {
		inv.Value = *c.Value
	}
	if c.Currency != nil {
		inv.Currency = strings.ToUpper(strings.TrimSpace(*c.Currency))
	}
	if c.Date != nil {
		inv.Date = c.Date.UTC()
	}
	if c.Notes != nil {
		inv.Notes = optional(*c.Notes)
	}

	if err := validate(inv); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("investment deleted", slog.String("id", id.String()))
	return nil
}

// Portfolio returns current value, invested amount and profit per
// currency. Currencies are never added together.
func (s *Service) Portfolio(ctx context.Context) ([]Position, error) {
	totals, err := s.store.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio: %w", err)
	}

	positions := make([]Position, 0, len(totals))
	for _, t := range totals {
		p := Position{
			Currency: t.Currency,
			Value:    t.Value,
			Invested: t.Invested,
			Profit:   t.Value.Sub(t.Invested),
			Count:    t.Count,
		}
		p.Display.Value = money.NewFromDecimal(p.Value, p.Currency).Display()
		p.Display.Invested = money.NewFromDecimal(p.Invested, p.Currency).Display()
		p.Display.Profit = money.NewFromDecimal(p.Profit, p.Currency).Display()
		positions = append(positions, p)
	}
	return positions, nil
}

func (s *Service) ListOperations(ctx context.Context, investmentID *uuid.UUID) ([]Operation, error) {
	return s.store.ListOperations(ctx, investmentID)
}

// AddOperation records an operation and moves the held quantity in the
// same transaction.
func (s *Service) AddOperation(ctx context.Context, in OperationInput) (*Operation, error) {
	op := &Operation{
		InvestmentID: in.InvestmentID,
		Type:         in.Type,
		Amount:       in.Amount,
		Price:        in.Price,
		Note:         optional(in.Note),
	}
	if err := validateOperation(op); err != nil {
		return nil, err
	}

	var held decimal.Decimal
	err := s.store.RunInTx(ctx, func(tx HoldingsStore) error {
		inv, err := tx.LockInvestment(ctx, op.InvestmentID)
		if err != nil {
			return err
		}
		held, err = op.Type.Apply(inv.CurrentAmount, op.Amount)
		if err != nil {
			return err
		}
		if err := tx.CreateOperation(ctx, op); err != nil {
			return err
		}
		return tx.SetCurrentAmount(ctx, inv.ID, held)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("investment operation created",
		slog.String("id", op.ID.String()),
		slog.String("investment_id", op.InvestmentID.String()),
		slog.String("type", string(op.Type)),
		slog.String("held", held.String()),
	)
	return op, nil
}

// UpdateOperation edits an operation. Changing its type or amount replays
// every operation of the investment from the original quantity.
func (s *Service) UpdateOperation(ctx context.Context, id uuid.UUID, c OperationChanges) (*Operation, error) {
	var updated *Operation
	err := s.store.RunInTx(ctx, func(tx HoldingsStore) error {
		op, err := tx.GetOperation(ctx, id)
		if err != nil {
			return err
		}

		replay := false
		if c.Type != nil && *c.Type != op.Type {
			op.Type = *c.Type
			replay = true
		}
		if c.Amount != nil && !c.Amount.Equal(op.Amount) {
			op.Amount = *c.Amount
			replay = true
		}
		if c.Price != nil {
			op.Price = c.Price
		}
		if c.Note != nil {
			op.Note = optional(*c.Note)
		}
		if err := validateOperation(op); err != nil {
			return err
		}

		if replay {
			inv, err := tx.LockInvestment(ctx, op.InvestmentID)
			if err != nil {
				return err
			}
			ops, err := tx.Operations(ctx, inv.ID)
			if err != nil {
				return err
			}
			for i := range ops {
				if ops[i].ID == op.ID {
					ops[i] = *op
				}
			}
			held, err := Replay(inv.OriginalAmount, ops)
			if err != nil {
				return err
			}
			if err := tx.SetCurrentAmount(ctx, inv.ID, held); err != nil {
				return err
			}
		}

		if err := tx.UpdateOperation(ctx, op); err != nil {
			return err
		}
		updated = op
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOperation removes an operation and replays the remaining ones.
func (s *Service) DeleteOperation(ctx context.Context, id uuid.UUID) error {
	err := s.store.RunInTx(ctx, func(tx HoldingsStore) error {
		op, err := tx.GetOperation(ctx, id)
		if err != nil {
			return err
		}
		inv, err := tx.LockInvestment(ctx, op.InvestmentID)
		if err != nil {
			return err
		}
		ops, err := tx.Operations(ctx, inv.ID)
		if err != nil {
			return err
		}

		remaining := make([]Operation, 0, len(ops))
		for _, o := range ops {
			if o.ID != id {
				remaining = append(remaining, o)
			}
		}
		held, err := Replay(inv.OriginalAmount, remaining)
		if err != nil {
			return err
		}

		if err := tx.DeleteOperation(ctx, id); err != nil {
			return err
		}
		return tx.SetCurrentAmount(ctx, inv.ID, held)
	})
	if err != nil {
		return err
	}

	s.logger.Info("investment operation deleted", slog.String("id", id.String()))
	return nil
}

func validate(inv *Investment) error {
	switch {
	case inv.Name == "":
		return ErrEmptyName
	case inv.Type == "":
		return ErrEmptyType
	case !inv.Invested.IsPositive():
		return fmt.Errorf("%w: invested amount must be positive", ErrInvalidAmount)
	case inv.Value.IsNegative():
		return fmt.Errorf("%w: value cannot be negative", ErrInvalidAmount)
	case !money.IsValidCurrency(inv.Currency):
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, inv.Currency)
	}
	return nil
}

// validateOperation requires a positive amount for buys and sells; an
// adjustment to zero is allowed.
func validateOperation(op *Operation) error {
	if !op.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperationType, op.Type)
	}
	if op.Amount.IsNegative() || (op.Type != OperationAdjust && op.Amount.IsZero()) {
		return fmt.Errorf("%w: %s for %s", ErrInvalidAmount, op.Amount, op.Type)
	}
	if op.Price != nil && op.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidAmount)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
