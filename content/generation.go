package content

import "sync/atomic"

// Generation hands out request tokens so a view can drop results of a
// request that a later one has superseded.
//
//	tok := gen.Next()
//	posts := repo.LoadAll(ctx)
//	if !gen.Current(tok) {
//		return // stale
//	}
type Generation struct {
	n atomic.Uint64
}

// Next starts a new request and returns its token.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current reports whether token belongs to the most recent request.
func (g *Generation) Current(token uint64) bool {
	return g.n.Load() == token
}
