package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeck_RemoveFromEmpty(t *testing.T) {
	var d Deck[string]

	card, ok := d.RemoveCard()
	assert.False(t, ok)
	assert.Equal(t, "", card)
	assert.True(t, d.IsEmpty())
	assert.Equal(t, 0, d.Len())

	// Still usable after a failed draw.
	d.AddCard("a")
	card, ok = d.RemoveCard()
	require.True(t, ok)
	assert.Equal(t, "a", card)
}

func TestDeck_FIFO(t *testing.T) {
	for _, n := range []int{1, 2, 7, 30} {
		d := New[int]()
		for i := 0; i < n; i++ {
			d.AddCard(i)
			assert.Equal(t, i+1, d.Len())
		}
		for i := 0; i < n; i++ {
			got, ok := d.RemoveCard()
			require.True(t, ok)
			assert.Equal(t, i, got)
			assert.Equal(t, n-i-1, d.Len())
		}
		assert.True(t, d.IsEmpty())
		_, ok := d.RemoveCard()
		assert.False(t, ok)
	}
}

func TestDeck_InterleavedAddRemove(t *testing.T) {
	d := New("a", "b")

	got, _ := d.RemoveCard()
	assert.Equal(t, "a", got)
	got, _ = d.RemoveCard()
	assert.Equal(t, "b", got)

	// Tail must be reset once the list drains.
	d.AddCard("c")
	d.AddCard("d")
	assert.Equal(t, 2, d.Len())
	got, ok := d.RemoveCard()
	require.True(t, ok)
	assert.Equal(t, "c", got)
	got, _ = d.RemoveCard()
	assert.Equal(t, "d", got)
	assert.True(t, d.IsEmpty())
}

func TestDeck_DuplicatesAllowed(t *testing.T) {
	type card struct{ name string }
	a := &card{name: "Wizard"}
	b := &card{name: "Wizard"}
	d := New(a, b, a)

	assert.Equal(t, 3, d.Len())
	first, _ := d.RemoveCard()
	second, _ := d.RemoveCard()
	assert.Same(t, a, first)
	assert.Same(t, b, second)
}
