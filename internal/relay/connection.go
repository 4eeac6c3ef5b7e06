package relay

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/eleven-am/coach/internal/domain"
)

// DefaultPageSize applies when the caller does not set First.
const DefaultPageSize = 10

// PageArgs are the forward-only pagination inputs shared by every listing.
type PageArgs struct {
	First  int
	After  string
	Search string
}

// Edge pairs a node with its cursor.
type Edge[T any] struct {
	Cursor string `json:"cursor"`
	Node   T      `json:"node"`
}

// PageInfo reports page boundaries. HasPreviousPage is always false; backward
// pagination is unsupported.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Connection is a page of nodes in the GraphQL connection shape.
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Window applies keyset pagination to a select builder: id > after when a
// cursor is present, ascending id order, and limit first+1 so the extra row
// signals another page. idColumn must be the qualified id column of the
// listed table.
func Window(builder squirrel.SelectBuilder, idColumn string, page PageArgs) (squirrel.SelectBuilder, error) {
	if page.First < 0 {
		return builder, domain.NewError("paginate", "",
			fmt.Errorf("%w: 'first' must not be negative", domain.ErrInvalidArgument))
	}

	first := page.First
	if first == 0 {
		first = DefaultPageSize
	}

	if page.After != "" {
		afterID, err := DecodeCursor(page.After)
		if err != nil {
			return builder, err
		}
		builder = builder.Where(squirrel.Gt{idColumn: afterID})
	}

	return builder.
		OrderBy(idColumn + " ASC").
		Limit(uint64(first + 1)), nil
}

// Limit resolves the effective page size for PageArgs that passed Window.
func (p PageArgs) Limit() int {
	if p.First == 0 {
		return DefaultPageSize
	}
	return p.First
}

// Connect assembles a connection from the fetched window. nodes and ids are
// parallel slices holding up to limit+1 rows; the extra row is dropped and
// flips hasNextPage.
func Connect[T any](nodes []T, ids []int64, limit int) Connection[T] {
	hasNext := len(nodes) > limit
	if hasNext {
		nodes = nodes[:limit]
		ids = ids[:limit]
	}

	edges := make([]Edge[T], len(nodes))
	for i, node := range nodes {
		edges[i] = Edge[T]{Cursor: EncodeCursor(ids[i]), Node: node}
	}

	info := PageInfo{HasNextPage: hasNext}
	if len(edges) > 0 {
		start := edges[0].Cursor
		end := edges[len(edges)-1].Cursor
		info.StartCursor = &start
		info.EndCursor = &end
	}

	return Connection[T]{Edges: edges, PageInfo: info}
}
