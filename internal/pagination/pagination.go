// Package pagination produces connection-shaped pages: the selected nodes plus
// hasNextPage and the total count of the filtered set before skip/limit.
package pagination

// Connection is the paginated result shape exposed by list queries. The cursor
// identity of each node is the entity's own id.
type Connection[T any] struct {
	Nodes       []T
	HasNextPage bool
	TotalCount  int64
}

// Paginate applies skip then first to an already-sorted in-memory set, used
// for embedded sub-collections that were fetched whole. A nil first means
// unbounded.
func Paginate[T any](nodes []T, first *int, skip int) Connection[T] {
	total := len(nodes)
	if skip < 0 {
		skip = 0
	}
	if skip >= total {
		nodes = nil
	} else {
		nodes = nodes[skip:]
	}
	if first != nil {
		if *first < 0 {
			nodes = nil
		} else if *first < len(nodes) {
			nodes = nodes[:*first]
		}
	}
	return FromPage(nodes, int64(total), skip)
}

// FromPage shapes a page that was already cut server-side (sort/skip/limit in
// the storage query) into a connection. total is the count of the full
// filtered set.
func FromPage[T any](nodes []T, total int64, skip int) Connection[T] {
	return Connection[T]{
		Nodes:       nodes,
		HasNextPage: total > int64(skip+len(nodes)),
		TotalCount:  total,
	}
}
