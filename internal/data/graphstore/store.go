// Package graphstore defines the ports the aggregate engine uses to reach the property-graph
// store, plus the closed catalog of statements it is allowed to issue.
package graphstore

import (
	"context"
	"errors"
)

// Row is one result record keyed by column name.
type Row map[string]any

// ErrTxUnsupported is returned by BeginTx when the store cannot open an explicit transaction
// for this call pattern. Callers fall back to sequential writes with compensation.
var ErrTxUnsupported = errors.New("graphstore: explicit transactions not supported")

// ErrTxConflict is returned by Commit when writes committed since the transaction began
// make its own writes inapplicable. Nothing from the transaction is applied.
var ErrTxConflict = errors.New("graphstore: transaction conflict")

type Reader interface {
	Read(ctx context.Context, st Statement) ([]Row, error)
}

type Writer interface {
	Write(ctx context.Context, st Statement) ([]Row, error)
}

// Client executes single statements, each in its own session.
type Client interface {
	Reader
	Writer
}

// Tx is an explicit transaction handle. Rollback after a successful Commit is a no-op,
// so callers can defer Rollback unconditionally.
type Tx interface {
	Run(ctx context.Context, st Statement) ([]Row, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor is implemented by stores that can open explicit transactions.
type Transactor interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Runner is the common shape of Client.Write and Tx.Run.
type Runner interface {
	Run(ctx context.Context, st Statement) ([]Row, error)
}

// ClientRunner adapts a Client into a Runner, routing read-only statements to Read.
type ClientRunner struct {
	Client Client
}

func (r ClientRunner) Run(ctx context.Context, st Statement) ([]Row, error) {
	if st.Op.ReadOnly() {
		return r.Client.Read(ctx, st)
	}
	return r.Client.Write(ctx, st)
}
