package aggregates

import (
	"context"
	"errors"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/domain/curriculum"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

// Scope is the write context handed to one aggregate write sequence.
type Scope struct {
	Ctx    context.Context
	Runner graphstore.Runner
	Mode   domainagg.WriteMode
	comp   *CompensationManager
}

// Undo returns the compensation manager of a non-transactional scope, or nil inside a
// transaction where rollback covers every write.
func (s Scope) Undo() *CompensationManager { return s.comp }

// Track records a created node for compensation. No-op inside a transaction.
func (s Scope) Track(kind curriculum.Kind, id string) {
	if s.comp != nil {
		s.comp.TrackCreated(kind, id)
	}
}

// TxRunner provides the write boundary for aggregate writes. Callers never choose the mode:
// an explicit transaction is used whenever the store offers one.
type TxRunner interface {
	InTx(ctx context.Context, op string, fn func(sc Scope) error) error
}

type storeTxRunner struct {
	client graphstore.Client
	log    *logger.Logger
	hooks  Hooks
}

// NewStoreTxRunner returns a runner backed by client. If client also implements
// graphstore.Transactor, writes run in one explicit transaction; otherwise, or when BeginTx
// reports graphstore.ErrTxUnsupported, they run as sequential writes with compensation.
func NewStoreTxRunner(client graphstore.Client, log *logger.Logger, hooks Hooks) TxRunner {
	if log == nil {
		log = logger.NewNop()
	}
	if hooks == nil {
		hooks = noopHooks{}
	}
	return &storeTxRunner{client: client, log: log.With("component", "TxRunner"), hooks: hooks}
}

func (r *storeTxRunner) InTx(ctx context.Context, op string, fn func(sc Scope) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.client == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "transaction runner has nil store", nil)
	}

	if t, ok := r.client.(graphstore.Transactor); ok {
		tx, err := t.BeginTx(ctx)
		switch {
		case err == nil:
			return r.inExplicitTx(ctx, op, tx, fn)
		case !errors.Is(err, graphstore.ErrTxUnsupported):
			return err
		}
	}
	return r.inCompensatingScope(ctx, op, fn)
}

func (r *storeTxRunner) inExplicitTx(ctx context.Context, op string, tx graphstore.Tx, fn func(sc Scope) error) error {
	// Released on every path, including panics; a no-op after Commit.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(Scope{Ctx: ctx, Runner: tx, Mode: domainagg.WriteModeTransactional}); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			r.log.Warn("rollback failed", "op", op, "error", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *storeTxRunner) inCompensatingScope(ctx context.Context, op string, fn func(sc Scope) error) (err error) {
	comp := NewCompensationManager(r.client, r.log.With("op", op))
	sc := Scope{
		Ctx:    ctx,
		Runner: graphstore.ClientRunner{Client: r.client},
		Mode:   domainagg.WriteModeCompensating,
		comp:   comp,
	}

	defer func() {
		if p := recover(); p != nil {
			r.compensate(ctx, op, comp)
			panic(p)
		}
	}()

	if err = fn(sc); err != nil {
		r.compensate(ctx, op, comp)
	}
	return err
}

func (r *storeTxRunner) compensate(ctx context.Context, op string, comp *CompensationManager) {
	if comp.Len() == 0 {
		return
	}
	cerr := comp.Compensate(ctx)
	if cerr != nil {
		r.log.Error("compensation incomplete; partial writes may remain", "op", op, "error", cerr)
	}
	r.hooks.IncCompensation(op, cerr == nil)
}
