// Package deck provides the draw pile used by each player.
package deck

// node is a single link in the draw pile.
type node[T any] struct {
	value T
	next  *node[T]
}

// Deck is a FIFO queue of cards backed by a singly linked list.
// Cards are appended at the tail and drawn from the head. The zero value is an
// empty deck ready to use.
type Deck[T any] struct {
	head *node[T]
	tail *node[T]
	size int
}

// New creates a deck holding the given cards in order (first card on top).
func New[T any](cards ...T) *Deck[T] {
	d := &Deck[T]{}
	for _, c := range cards {
		d.AddCard(c)
	}
	return d
}

// IsEmpty reports whether the deck has no cards left.
func (d *Deck[T]) IsEmpty() bool {
	return d.size == 0
}

// Len returns the number of cards in the deck.
func (d *Deck[T]) Len() int {
	return d.size
}

// AddCard appends a card to the bottom of the deck.
func (d *Deck[T]) AddCard(card T) {
	n := &node[T]{value: card}
	if d.tail == nil {
		d.head = n
		d.tail = n
	} else {
		d.tail.next = n
		d.tail = n
	}
	d.size++
}

// RemoveCard removes and returns the top card.
// ok is false when the deck is empty.
func (d *Deck[T]) RemoveCard() (card T, ok bool) {
	if d.head == nil {
		return card, false
	}
	n := d.head
	d.head = n.next
	if d.head == nil {
		d.tail = nil
	}
	n.next = nil
	d.size--
	return n.value, true
}
