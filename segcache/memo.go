package segcache

import "sync"

// RequestMemo holds zero-window artifacts for the duration of one request,
// so a dynamic hole is computed at most once per request. Entries never
// outlive the memo; dropping the memo at the end of the request drops them.
type RequestMemo struct {
	mu        sync.Mutex
	artifacts map[Key][]byte
}

// NewRequestMemo creates an empty request-scoped memo.
func NewRequestMemo() *RequestMemo {
	return &RequestMemo{artifacts: make(map[Key][]byte)}
}

// Get returns the memoized artifact for key.
func (m *RequestMemo) Get(key Key) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	artifact, ok := m.artifacts[key]
	return artifact, ok
}

// Put memoizes an artifact for the rest of the request.
func (m *RequestMemo) Put(key Key, artifact []byte) {
	m.mu.Lock()
	m.artifacts[key] = artifact
	m.mu.Unlock()
}

// Len returns the number of memoized artifacts.
func (m *RequestMemo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.artifacts)
}
