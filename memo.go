package fusion

import (
	"sync"

	"github.com/gomlx/fusion/pattern"
)

type nodePair struct {
	upstream, downstream *pattern.Node
}

// MemoizedPolicy caches the verdicts of a Policy per (upstream, downstream) node pair.
//
// The graph, signatures and shape analysis must not change while it is in use. Errors are not
// cached. It is safe for concurrent use.
type MemoizedPolicy struct {
	policy *Policy

	mu       sync.Mutex
	verdicts map[nodePair]bool
	hits     int
}

// NewMemoizedPolicy wraps policy with a cache of verdicts.
func NewMemoizedPolicy(policy *Policy) *MemoizedPolicy {
	return &MemoizedPolicy{
		policy:   policy,
		verdicts: make(map[nodePair]bool),
	}
}

// CanFuse returns the cached verdict for the pair, or evaluates Policy.CanFuse.
func (m *MemoizedPolicy) CanFuse(upstream, downstream *pattern.Node) (bool, error) {
	key := nodePair{upstream, downstream}
	m.mu.Lock()
	verdict, found := m.verdicts[key]
	if found {
		m.hits++
	}
	m.mu.Unlock()
	if found {
		return verdict, nil
	}

	verdict, err := m.policy.CanFuse(upstream, downstream)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	m.verdicts[key] = verdict
	m.mu.Unlock()
	return verdict, nil
}

// Len returns the number of cached verdicts.
func (m *MemoizedPolicy) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.verdicts)
}

// Hits returns how many times a cached verdict was returned.
func (m *MemoizedPolicy) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}
