package neo4jdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
)

// Store executes graphstore statements against Neo4j. Every Read/Write opens and closes its
// own session; BeginTx holds a session until Commit or Rollback.
type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) Read(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	return s.execute(ctx, st, neo4j.AccessModeRead)
}

func (s *Store) Write(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	return s.execute(ctx, st, neo4j.AccessModeWrite)
}

func (s *Store) execute(ctx context.Context, st graphstore.Statement, mode neo4j.AccessMode) ([]graphstore.Row, error) {
	if s == nil || s.client == nil || s.client.Driver == nil {
		return nil, fmt.Errorf("neo4jdb: store not initialized")
	}
	query, params, err := st.Render()
	if err != nil {
		return nil, err
	}

	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return toRows(records), nil
	}

	var out any
	if mode == neo4j.AccessModeRead {
		out, err = session.ExecuteRead(ctx, work)
	} else {
		out, err = session.ExecuteWrite(ctx, work)
	}
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: %s: %w", st.Op, err)
	}
	rows, _ := out.([]graphstore.Row)
	return rows, nil
}

func (s *Store) BeginTx(ctx context.Context) (graphstore.Tx, error) {
	if s == nil || s.client == nil || s.client.Driver == nil {
		return nil, fmt.Errorf("neo4jdb: store not initialized")
	}
	if !s.client.ExplicitTx {
		return nil, graphstore.ErrTxUnsupported
	}
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: begin transaction: %w", err)
	}
	return &explicitTx{session: session, tx: tx}, nil
}

type explicitTx struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	done    bool
}

func (t *explicitTx) Run(ctx context.Context, st graphstore.Statement) ([]graphstore.Row, error) {
	if t.done {
		return nil, fmt.Errorf("neo4jdb: transaction already closed")
	}
	query, params, err := st.Render()
	if err != nil {
		return nil, err
	}
	res, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: %s: %w", st.Op, err)
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: %s: %w", st.Op, err)
	}
	return toRows(records), nil
}

func (t *explicitTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("neo4jdb: transaction already closed")
	}
	t.done = true
	defer t.session.Close(ctx)
	return t.tx.Commit(ctx)
}

func (t *explicitTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.session.Close(ctx)
	return t.tx.Rollback(ctx)
}

func toRows(records []*neo4j.Record) []graphstore.Row {
	rows := make([]graphstore.Row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		rows = append(rows, graphstore.Row(rec.AsMap()))
	}
	return rows
}

var (
	_ graphstore.Client     = (*Store)(nil)
	_ graphstore.Transactor = (*Store)(nil)
)
