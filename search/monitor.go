package search

import "github.com/poiesic/lostfound/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query Query)
	OnQueryEmbedded(variants []Variant)
	OnCandidatesFetched(candidates []Candidate)
	OnRanked(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                     {}
func (n *noopMonitor) OnQueryEmbedded(_ []Variant)       {}
func (n *noopMonitor) OnCandidatesFetched(_ []Candidate) {}
func (n *noopMonitor) OnRanked(_ []*core.SearchResult)   {}
