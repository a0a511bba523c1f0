package mana

import (
	"testing"
)

func TestPool_Increment(t *testing.T) {
	pool := NewDefaultPool()

	if pool.Current() != 0 {
		t.Errorf("Expected empty pool before first turn, got %d", pool.Current())
	}

	pool.Increment()
	if pool.Max() != 3 {
		t.Errorf("Expected max 3 after first increment, got %d", pool.Max())
	}
	if pool.Current() != 3 {
		t.Errorf("Expected pool refilled to 3, got %d", pool.Current())
	}
}

func TestPool_CapAfterNineIncrements(t *testing.T) {
	pool := NewPool(2, 10)

	for i := 0; i < 9; i++ {
		pool.Increment()
		if pool.Current() > pool.Max() {
			t.Fatalf("current %d exceeds max %d", pool.Current(), pool.Max())
		}
		if pool.Max() > 10 {
			t.Fatalf("max %d exceeds cap", pool.Max())
		}
	}

	if pool.Max() != 10 {
		t.Errorf("Expected max capped at 10, got %d", pool.Max())
	}
	if pool.Current() != 10 {
		t.Errorf("Expected current 10, got %d", pool.Current())
	}
}

func TestPool_Spend(t *testing.T) {
	pool := NewPool(3, 10)
	pool.Increment() // 4

	if !pool.Spend(3) {
		t.Error("Expected to spend 3 mana")
	}
	if pool.Current() != 1 {
		t.Errorf("Expected 1 mana remaining, got %d", pool.Current())
	}

	// Try to spend more than available
	if pool.Spend(2) {
		t.Error("Expected to fail spending 2 mana when only 1 available")
	}
	if pool.Current() != 1 {
		t.Errorf("Failed spend must not change the pool, got %d", pool.Current())
	}

	if !pool.Spend(0) {
		t.Error("Spending zero always succeeds")
	}
}

func TestPool_RefillResetsUnspent(t *testing.T) {
	pool := NewPool(2, 10)
	pool.Increment()
	pool.Spend(3)
	pool.Increment()

	if pool.Current() != 4 {
		t.Errorf("Expected refill to 4, got %d", pool.Current())
	}
	if !pool.CanAfford(4) || pool.CanAfford(5) {
		t.Error("CanAfford disagrees with current mana")
	}
}

func TestPool_StartingMaxClamped(t *testing.T) {
	pool := NewPool(15, 10)
	if pool.Max() != 10 {
		t.Errorf("Expected starting max clamped to cap, got %d", pool.Max())
	}
	pool.Increment()
	if pool.Max() != 10 {
		t.Errorf("Expected max to stay at cap, got %d", pool.Max())
	}
}
