// Package frontier records the final classification of every URL met
// during a mirror run.
//
// A URL moves from unknown to exactly one of visited, ignored or failed
// and is never reclassified. While it is being fetched it is held as
// claimed, which counts as processed for deduplication but is not one of
// the three reported sets.
package frontier

import (
	"fmt"
	"sort"
	"sync"
)

// State is the classification of a URL
type State int

const (
	Unknown State = iota
	Claimed
	Visited
	Ignored
	Failed
)

func (s State) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case Visited:
		return "visited"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Frontier owns the visited, ignored and failed sets
type Frontier struct {
	mu     sync.Mutex
	states map[string]State
	counts map[State]int
}

// New returns an empty frontier
func New() *Frontier {
	return &Frontier{
		states: make(map[string]State),
		counts: make(map[State]int),
	}
}

// State returns the current classification of url
func (f *Frontier) State(url string) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[url]
}

// Seen reports whether url has been claimed or classified
func (f *Frontier) Seen(url string) bool {
	return f.State(url) != Unknown
}

// Claim atomically marks an unknown url as being fetched. It returns false
// when url was already claimed or classified.
func (f *Frontier) Claim(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states[url] != Unknown {
		return false
	}
	f.set(url, Claimed)
	return true
}

// Ignore classifies an unknown url as ignored. It returns false if url was
// already seen.
func (f *Frontier) Ignore(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states[url] != Unknown {
		return false
	}
	f.set(url, Ignored)
	return true
}

// Resolve moves a claimed url to visited or failed
func (f *Frontier) Resolve(url string, to State) error {
	if to != Visited && to != Failed {
		return fmt.Errorf("frontier: cannot resolve %s to %s", url, to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur := f.states[url]; cur != Claimed {
		return fmt.Errorf("frontier: %s is %s, not claimed", url, cur)
	}
	f.set(url, to)
	return nil
}

// Release forgets a claim that was never resolved
func (f *Frontier) Release(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states[url] == Claimed {
		f.counts[Claimed]--
		delete(f.states, url)
	}
}

func (f *Frontier) set(url string, s State) {
	if prev, ok := f.states[url]; ok {
		f.counts[prev]--
	}
	f.states[url] = s
	f.counts[s]++
}

// Count returns the number of urls in state s
func (f *Frontier) Count(s State) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[s]
}

// Snapshot returns the sorted members of state s
func (f *Frontier) Snapshot(s State) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, f.counts[s])
	for url, st := range f.states {
		if st == s {
			out = append(out, url)
		}
	}
	sort.Strings(out)
	return out
}
