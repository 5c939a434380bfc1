package service

import (
	"strings"
	"sync"
)

// IgnoreList holds host substrings whose traffic is never intercepted.
// Matching is substring containment so that an entry covers its subdomains.
type IgnoreList struct {
	mu      sync.RWMutex
	domains []string
}

// NewIgnoreList creates a list holding domains.
func NewIgnoreList(domains ...string) *IgnoreList {
	l := &IgnoreList{}
	l.Set(domains)
	return l
}

// Set replaces the whole list. Empty entries are dropped.
func (l *IgnoreList) Set(domains []string) {
	normalized := normalizeDomains(domains)

	l.mu.Lock()
	l.domains = normalized
	l.mu.Unlock()
}

// Add appends domains to the list.
func (l *IgnoreList) Add(domains ...string) {
	normalized := normalizeDomains(domains)

	l.mu.Lock()
	l.domains = append(l.domains, normalized...)
	l.mu.Unlock()
}

// Domains returns a copy of the list.
func (l *IgnoreList) Domains() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.domains...)
}

// Matches reports whether host contains any listed entry.
func (l *IgnoreList) Matches(host string) bool {
	if l == nil {
		return false
	}
	host = strings.ToLower(host)

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, d := range l.domains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		// 空字符串会匹配所有主机
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}
	return out
}
