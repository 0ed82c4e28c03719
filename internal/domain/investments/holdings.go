package investments

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OperationType is what an operation does to the held quantity.
type OperationType string

const (
	OperationBuy    OperationType = "COMPRA"
	OperationSell   OperationType = "VENTA"
	OperationAdjust OperationType = "AJUSTE"
)

var operationAliases = map[string]OperationType{
	"compra": OperationBuy,
	"buy":    OperationBuy,
	"venta":  OperationSell,
	"sell":   OperationSell,
	"ajuste": OperationAdjust,
	"adjust": OperationAdjust,
}

// ParseOperationType accepts the stored names and their English aliases,
// case-insensitively.
func ParseOperationType(s string) (OperationType, error) {
	if t, ok := operationAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperationType, s)
}

func (t OperationType) Valid() bool {
	return t == OperationBuy || t == OperationSell || t == OperationAdjust
}

// Apply returns the quantity held after the operation. A sell may not take
// the holding below zero; an adjustment sets it outright.
func (t OperationType) Apply(held, amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case OperationBuy:
		return held.Add(amount), nil
	case OperationSell:
		next := held.Sub(amount)
		if next.IsNegative() {
			return held, fmt.Errorf("%w: holding %s, selling %s", ErrInsufficientHoldings, held, amount)
		}
		return next, nil
	case OperationAdjust:
		return amount, nil
	default:
		return held, fmt.Errorf("%w: %q", ErrInvalidOperationType, t)
	}
}

// Replay recomputes a holding from its original quantity by applying ops in
// order. It fails on the first operation that cannot be applied.
func Replay(original decimal.Decimal, ops []Operation) (decimal.Decimal, error) {
	held := original
	for _, op := range ops {
		next, err := op.Type.Apply(held, op.Amount)
		if err != nil {
			return original, fmt.Errorf("operation %s: %w", op.ID, err)
		}
		held = next
	}
	return held, nil
}
