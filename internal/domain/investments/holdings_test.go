package investments

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseOperationType(t *testing.T) {
	tests := []struct {
		input string
		want  OperationType
	}{
		{"COMPRA", OperationBuy},
		{" compra ", OperationBuy},
		{"buy", OperationBuy},
		{"Venta", OperationSell},
		{"sell", OperationSell},
		{"ajuste", OperationAdjust},
		{"ADJUST", OperationAdjust},
	}

	for _, tt := range tests {
		got, err := ParseOperationType(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseOperationType("transfer")
	assert.ErrorIs(t, err, ErrInvalidOperationType)
}

func TestOperationType_Apply(t *testing.T) {
	tests := []struct {
		name    string
		op      OperationType
		held    string
		amount  string
		want    string
		wantErr error
	}{
		{"buy adds", OperationBuy, "1.5", "0.25", "1.75", nil},
		{"sell subtracts", OperationSell, "10", "4", "6", nil},
		{"sell everything", OperationSell, "10", "10", "0", nil},
		{"sell more than held", OperationSell, "10", "10.01", "10", ErrInsufficientHoldings},
		{"adjust sets", OperationAdjust, "10", "3", "3", nil},
		{"adjust to zero", OperationAdjust, "10", "0", "0", nil},
		{"unknown type", OperationType("DONAR"), "10", "1", "10", ErrInvalidOperationType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Apply(dec(tt.held), dec(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestReplay(t *testing.T) {
	op := func(typ OperationType, amount string) Operation {
		return Operation{ID: uuid.New(), Type: typ, Amount: dec(amount)}
	}

	held, err := Replay(dec("2"), []Operation{
		op(OperationBuy, "3"),
		op(OperationSell, "1"),
		op(OperationAdjust, "10"),
		op(OperationSell, "2.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "7.5", held.String())

	held, err = Replay(dec("4"), nil)
	require.NoError(t, err)
	assert.Equal(t, "4", held.String())

	sell := op(OperationSell, "5")
	_, err = Replay(dec("1"), []Operation{op(OperationBuy, "1"), sell})
	assert.ErrorIs(t, err, ErrInsufficientHoldings)
	assert.Contains(t, err.Error(), sell.ID.String())
}
