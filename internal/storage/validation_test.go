package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		category *model.Category
		wantErr  error
		name     string
	}{
		{
			name:     "valid",
			category: &model.Category{Owner: "alice", Name: "Food", Kind: model.CategoryKindSpending},
		},
		{
			name:    "nil",
			wantErr: ErrNilParameter,
		},
		{
			name:     "missing owner",
			category: &model.Category{Name: "Food", Kind: model.CategoryKindSpending},
			wantErr:  ErrInvalidCategory,
		},
		{
			name:     "blank name",
			category: &model.Category{Owner: "alice", Name: "  ", Kind: model.CategoryKindSpending},
			wantErr:  ErrInvalidCategory,
		},
		{
			name:     "unknown kind",
			category: &model.Category{Owner: "alice", Name: "Food", Kind: "income"},
			wantErr:  ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCategory(tt.category)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("validateCategory() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := func() *model.Transaction {
		return &model.Transaction{
			ID:          "t1",
			Owner:       "alice",
			Description: "Coffee",
			AmountCents: -350,
			Date:        time.Now(),
			Category:    "Misc",
		}
	}

	tests := []struct {
		mutate  func(*model.Transaction)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Transaction) {}},
		{name: "missing id", mutate: func(t *model.Transaction) { t.ID = "" }, wantErr: true},
		{name: "missing owner", mutate: func(t *model.Transaction) { t.Owner = "" }, wantErr: true},
		{name: "zero date", mutate: func(t *model.Transaction) { t.Date = time.Time{} }, wantErr: true},
		{name: "zero amount", mutate: func(t *model.Transaction) { t.AmountCents = 0 }, wantErr: true},
		{name: "missing category", mutate: func(t *model.Transaction) { t.Category = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid()
			tt.mutate(txn)
			err := validateTransaction(txn)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := validateTransaction(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("validateTransaction(nil) error = %v, want %v", err, ErrNilParameter)
	}
}
