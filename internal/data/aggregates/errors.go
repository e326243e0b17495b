package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/curriculum-graph/internal/data/graphstore"
	domainagg "github.com/yungbote/curriculum-graph/internal/domain/aggregates"
)

// MapError maps infrastructure failures into aggregate error codes.
// Errors that already carry a code pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domainagg.Internal(op, err)
	}
	if errors.Is(err, graphstore.ErrTxConflict) {
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if strings.Contains(neoErr.Code, "ConstraintValidationFailed") {
			return domainagg.Wrap(domainagg.CodeConflict, op, err) // uniqueness constraint
		}
	}
	return domainagg.Internal(op, err)
}
