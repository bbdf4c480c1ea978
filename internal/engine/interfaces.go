package engine

import (
	"context"
	"io"

	"github.com/Veraticus/tally/internal/ofx"
)

// StatementParser turns a bank statement into entries for import.
type StatementParser interface {
	ParseFile(ctx context.Context, r io.Reader) ([]ofx.Entry, error)
}
