package toolhub

import "sync"

// historyCache remembers the index of the last successful candidate per
// tool name. Entries are best-effort hints: absence means cold start and
// pure priority ordering. Written only after a definitive success,
// overwritten on each one, never deleted.
type historyCache struct {
	mu  sync.Mutex
	idx map[string]int
}

func newHistoryCache() *historyCache {
	return &historyCache{idx: make(map[string]int)}
}

func (hc *historyCache) get(name string) (int, bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	i, ok := hc.idx[name]
	return i, ok
}

func (hc *historyCache) set(name string, i int) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.idx[name] = i
}
