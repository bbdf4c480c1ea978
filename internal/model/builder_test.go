package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
)

var (
	testToday   = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	foodCat     = Category{Owner: "alice", Name: "Food", Kind: CategoryKindSpending}
	depositCat  = Category{Owner: "alice", Name: "Deposit", Kind: CategoryKindDeposit, IsDefault: true}
	testPastDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func validWithdrawal() *TransactionBuilder {
	return NewTransactionBuilder(testToday).
		WithDescription("Groceries").
		WithAmountCents(4250).
		WithDate(testPastDay).
		WithCategory(foodCat).
		WithMemo("weekly shop")
}

func TestTransactionBuilder_Build(t *testing.T) {
	txn, err := validWithdrawal().Build()
	require.NoError(t, err)

	assert.Equal(t, "alice", txn.Owner)
	assert.Equal(t, "Groceries", txn.Description)
	assert.Equal(t, int64(-4250), txn.AmountCents)
	assert.Equal(t, testPastDay, txn.Date)
	assert.Equal(t, "Food", txn.Category)
	assert.Equal(t, "weekly shop", txn.Memo)
	assert.False(t, txn.IsDeposit())
}

func TestTransactionBuilder_Rejections(t *testing.T) {
	tests := []struct {
		mutate func(*TransactionBuilder)
		name   string
		field  string
	}{
		{
			name:   "empty description",
			field:  FieldDescription,
			mutate: func(b *TransactionBuilder) { b.WithDescription("   ") },
		},
		{
			name:   "description too long",
			field:  FieldDescription,
			mutate: func(b *TransactionBuilder) { b.WithDescription("this description is far too long") },
		},
		{
			name:   "zero amount",
			field:  FieldAmount,
			mutate: func(b *TransactionBuilder) { b.WithAmountCents(0) },
		},
		{
			name:   "date after today",
			field:  FieldDate,
			mutate: func(b *TransactionBuilder) { b.WithDate(testToday.AddDate(0, 0, 1)) },
		},
		{
			name:   "category without owner",
			field:  FieldCategory,
			mutate: func(b *TransactionBuilder) { b.WithCategory(Category{Name: "Food"}) },
		},
		{
			name:   "withdrawal with deposit category",
			field:  FieldCategory,
			mutate: func(b *TransactionBuilder) { b.WithCategory(depositCat) },
		},
		{
			name:   "memo too long",
			field:  FieldMemo,
			mutate: func(b *TransactionBuilder) { b.WithMemo("a memo that exceeds the limit") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validWithdrawal()
			tt.mutate(b)

			assert.Error(t, b.FieldError(tt.field), "rejection should be visible at assignment")

			_, err := b.Build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))

			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.HasField(tt.field), "expected problem for %s, got %v", tt.field, verr.Problems)
		})
	}
}

func TestTransactionBuilder_TodayIsAllowed(t *testing.T) {
	txn, err := validWithdrawal().WithDate(testToday).Build()
	require.NoError(t, err)
	assert.Equal(t, CalendarDate(testToday), txn.Date)
}

func TestTransactionBuilder_RequiredFields(t *testing.T) {
	_, err := NewTransactionBuilder(testToday).Build()
	require.Error(t, err)

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{FieldDescription, FieldAmount, FieldDate, FieldCategory} {
		assert.True(t, verr.HasField(field), "missing %s should be reported", field)
	}
	assert.False(t, verr.HasField(FieldMemo), "memo is optional")
}

func TestTransactionBuilder_CorrectingAFieldClearsItsProblem(t *testing.T) {
	b := validWithdrawal().WithDescription("")
	require.Error(t, b.FieldError(FieldDescription))

	b.WithDescription("Lunch")
	assert.NoError(t, b.FieldError(FieldDescription))

	_, err := b.Build()
	assert.NoError(t, err)
}

func TestTransactionBuilder_AmountSign(t *testing.T) {
	t.Run("deposit flag makes amount positive", func(t *testing.T) {
		b := NewTransactionBuilder(testToday).AsDeposit(true).WithAmountCents(-10000)
		assert.Equal(t, int64(10000), b.AmountCents())
	})

	t.Run("withdrawal makes amount negative", func(t *testing.T) {
		b := NewTransactionBuilder(testToday).WithAmountCents(10000)
		assert.Equal(t, int64(-10000), b.AmountCents())
	})

	t.Run("flipping the flag re-signs without re-entry", func(t *testing.T) {
		b := NewTransactionBuilder(testToday).WithAmountCents(2500)
		require.Equal(t, int64(-2500), b.AmountCents())

		b.AsDeposit(true)
		assert.Equal(t, int64(2500), b.AmountCents())

		b.AsDeposit(false)
		assert.Equal(t, int64(-2500), b.AmountCents())
	})
}

func TestTransactionBuilder_DepositPairing(t *testing.T) {
	t.Run("deposit with non-deposit category fails", func(t *testing.T) {
		_, err := validWithdrawal().AsDeposit(true).Build()
		require.Error(t, err)

		var verr *common.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasField(FieldCategory))
	})

	t.Run("deposit with deposit category succeeds", func(t *testing.T) {
		txn, err := validWithdrawal().AsDeposit(true).WithCategory(depositCat).Build()
		require.NoError(t, err)
		assert.Equal(t, int64(4250), txn.AmountCents)
		assert.True(t, txn.IsDeposit())
	})

	t.Run("flipping back after fixing category is rejected again", func(t *testing.T) {
		b := validWithdrawal().AsDeposit(true).WithCategory(depositCat)
		require.NoError(t, b.FieldError(FieldCategory))

		b.AsDeposit(false)
		assert.Error(t, b.FieldError(FieldCategory))
	})
}
