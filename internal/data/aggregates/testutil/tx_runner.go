package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/curriculum-graph/internal/data/aggregates"
	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
)

// InjectedTxRunner is a test helper for aggregate tests.
// It supports begin/commit failure injection and counts boundaries without a real transaction;
// statements go straight to Client.
type InjectedTxRunner struct {
	mu sync.Mutex

	Client graphstore.Client

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
	Ops           []string
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, op string, fn func(sc aggregates.Scope) error) error {
	r.mu.Lock()
	r.BeginCalls++
	r.Ops = append(r.Ops, op)
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.inc(&r.RollbackCalls)
		return failBeforeBody
	}
	if fn == nil {
		r.inc(&r.CommitCalls)
		return nil
	}
	sc := aggregates.Scope{Ctx: ctx, Mode: domainagg.WriteModeTransactional}
	if r.Client != nil {
		sc.Runner = graphstore.ClientRunner{Client: r.Client}
	}
	if err := fn(sc); err != nil {
		r.inc(&r.RollbackCalls)
		return err
	}
	if failCommit != nil {
		r.inc(&r.RollbackCalls)
		return failCommit
	}
	r.inc(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) inc(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
