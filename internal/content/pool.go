package content

import (
	"math/rand"
	"sync"
)

// Pool tracks which items of one load have been consumed. Selection is
// uniformly random among the available items, not sequential; rotation
// order must not be predictable from the source order.
type Pool struct {
	mu        sync.Mutex
	items     []Item
	available map[Item]struct{}
	consumed  map[Item]struct{}
}

func NewPool(items []Item) *Pool {
	p := &Pool{items: items}
	p.rebuild()
	return p
}

func (p *Pool) rebuild() {
	p.available = make(map[Item]struct{}, len(p.items))
	p.consumed = make(map[Item]struct{})
	for _, it := range p.items {
		p.available[it] = struct{}{}
	}
}

func (p *Pool) HasRemaining() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available) > 0
}

func (p *Pool) RemainingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available)
}

func (p *Pool) ConsumedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.consumed)
}

// Total is the distinct item count of the load.
func (p *Pool) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available) + len(p.consumed)
}

// Next draws one item uniformly at random among the available set.
// The item stays available until MarkConsumed is called for it.
func (p *Pool) Next() (Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.available) == 0 {
		return Item{}, ErrExhausted
	}
	n := rand.Intn(len(p.available))
	for it := range p.available {
		if n == 0 {
			return it, nil
		}
		n--
	}
	// unreachable
	return Item{}, ErrExhausted
}

// MarkConsumed moves an item from available to consumed. Consuming an
// item that is already consumed, or was never in the pool, is a no-op.
func (p *Pool) MarkConsumed(it Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.available[it]; !ok {
		return
	}
	delete(p.available, it)
	p.consumed[it] = struct{}{}
}

// Reset returns every item to the available set. Only used between
// independent runs, never mid-run.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rebuild()
}

// Items returns a copy of the full load in source order.
func (p *Pool) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}
