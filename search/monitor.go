package search

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterCollectionSearch(collection string, hits int)
	VerbatimHit(hit *Hit)
	Finish(hits []*Hit)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterCollectionSearch(_ string, _ int) {}
func (n *noopMonitor) VerbatimHit(_ *Hit)                  {}
func (n *noopMonitor) Finish(_ []*Hit)                     {}
