package mana

import (
	"sync"
)

// Default economy values.
const (
	DefaultStartingMax = 2
	DefaultCap         = 10
)

// Pool is a player's mana: the amount available this turn and the per-turn
// maximum that grows by one each time the owner starts a turn.
type Pool struct {
	mu sync.RWMutex

	current int
	max     int
	cap     int
}

// NewPool creates a pool with the given starting maximum and hard cap.
// The pool starts empty; it fills when the owner's first turn begins.
func NewPool(startingMax, cap int) *Pool {
	if cap <= 0 {
		cap = DefaultCap
	}
	if startingMax < 0 {
		startingMax = 0
	}
	if startingMax > cap {
		startingMax = cap
	}
	return &Pool{max: startingMax, cap: cap}
}

// NewDefaultPool creates a pool with the default economy.
func NewDefaultPool() *Pool {
	return NewPool(DefaultStartingMax, DefaultCap)
}

// Increment raises the maximum by one (never above the cap) and refills the pool.
func (p *Pool) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.max < p.cap {
		p.max++
	}
	p.current = p.max
}

// CanAfford reports whether amount can be spent right now.
func (p *Pool) CanAfford(amount int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return amount <= p.current
}

// Spend attempts to spend mana from the pool.
// Returns true if successful, false if insufficient mana (the pool is unchanged).
func (p *Pool) Spend(amount int) bool {
	if amount <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current < amount {
		return false
	}
	p.current -= amount
	return true
}

// Current returns the mana available this turn.
func (p *Pool) Current() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Max returns the per-turn maximum.
func (p *Pool) Max() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.max
}
