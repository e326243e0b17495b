package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
	"github.com/yungbote/curriculum-graph/internal/platform/logger"
)

const tracerName = "github.com/yungbote/curriculum-graph/internal/data/aggregates"

type BaseDeps struct {
	Client    graphstore.Client
	Log       *logger.Logger
	Runner    TxRunner
	Hooks     Hooks
	Publisher EventPublisher
	Now       func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Runner == nil {
		d.Runner = NewStoreTxRunner(d.Client, d.Log, d.Hooks)
	}
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(sc Scope) error) error {
	start := time.Now()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()

	err := deps.Runner.InTx(ctx, op, func(sc Scope) error {
		span.SetAttributes(attribute.String("aggregate.write_mode", string(sc.Mode)))
		return fn(sc)
	})
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		span.SetAttributes(attribute.String("aggregate.error_code", status))
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeInternal) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "internal")
			deps.Log.Error("aggregate write failed", "op", op, "error", err)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeRead runs a read-only sequence directly on the client, outside any transaction.
func executeRead(ctx context.Context, deps BaseDeps, op string, fn func(ctx context.Context, r graphstore.Runner) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()

	err := MapError(op, fn(ctx, graphstore.ClientRunner{Client: deps.Client}))
	if domainagg.IsCode(err, domainagg.CodeInternal) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal")
		deps.Log.Error("aggregate read failed", "op", op, "error", err)
	}
	return err
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		return "failure"
	}
	return code
}
