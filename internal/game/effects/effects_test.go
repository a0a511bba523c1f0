package effects

import (
	"testing"

	"github.com/magefree/hearth-server-go/internal/game/targeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaster string

func (c stubCaster) PlayerID() string { return string(c) }

type stubPlayer struct {
	id    string
	hp    int
	maxHP int
	deck  int
	hand  int
}

func (p *stubPlayer) TargetType() targeting.TargetType { return targeting.TargetTypePlayer }
func (p *stubPlayer) TargetID() string                 { return p.id }

func (p *stubPlayer) TakeDamage(amount int) error {
	p.hp -= amount
	return nil
}

func (p *stubPlayer) RestoreHP(amount int) int {
	before := p.hp
	p.hp = min(p.maxHP, p.hp+amount)
	return p.hp - before
}

func (p *stubPlayer) DrawCards(n int) int {
	drawn := min(n, p.deck)
	p.deck -= drawn
	p.hand += drawn
	return drawn
}

type stubCreature struct {
	hp, maxHP int
	dead      bool
}

func (c *stubCreature) TargetType() targeting.TargetType { return targeting.TargetTypeCreature }
func (c *stubCreature) TargetID() string                 { return "creature" }

func (c *stubCreature) TakeDamage(amount int) error {
	c.hp -= amount
	c.dead = c.hp <= 0
	return nil
}

func (c *stubCreature) RestoreHP(amount int) int {
	before := c.hp
	c.hp = min(c.maxHP, c.hp+amount)
	return c.hp - before
}

func TestFireball(t *testing.T) {
	t.Run("player at 20 drops to 17", func(t *testing.T) {
		p := &stubPlayer{id: "bob", hp: 20, maxHP: 20}
		res, err := Fireball(stubCaster("alice"), p)
		require.NoError(t, err)
		assert.Equal(t, 17, p.hp)
		assert.Equal(t, 3, res.Damage)
	})

	t.Run("kills a small creature", func(t *testing.T) {
		c := &stubCreature{hp: 2, maxHP: 2}
		_, err := Fireball(stubCaster("alice"), c)
		require.NoError(t, err)
		assert.True(t, c.dead)
	})
}

func TestHeal(t *testing.T) {
	t.Run("capped at max", func(t *testing.T) {
		p := &stubPlayer{id: "alice", hp: 18, maxHP: 20}
		res, err := Heal(stubCaster("alice"), p)
		require.NoError(t, err)
		assert.Equal(t, 20, p.hp)
		assert.Equal(t, 2, res.Healed)
	})

	t.Run("full amount", func(t *testing.T) {
		c := &stubCreature{hp: 1, maxHP: 12}
		res, err := Heal(stubCaster("alice"), c)
		require.NoError(t, err)
		assert.Equal(t, 6, c.hp)
		assert.Equal(t, 5, res.Healed)
	})
}

func TestDraw(t *testing.T) {
	t.Run("partial draw", func(t *testing.T) {
		p := &stubPlayer{id: "alice", hp: 20, maxHP: 20, deck: 1}
		res, err := Draw(stubCaster("alice"), p)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Drawn)
		assert.Equal(t, 0, p.deck)
		assert.Equal(t, 1, p.hand)
	})

	t.Run("creature rejected", func(t *testing.T) {
		_, err := Draw(stubCaster("alice"), &stubCreature{hp: 3, maxHP: 3})
		assert.ErrorIs(t, err, ErrUnsupportedTarget)
	})
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{NameDraw, NameFireball, NameHeal}, Names())

	def, ok := Lookup(NameDraw)
	require.True(t, ok)
	assert.True(t, def.Requirement.Allows(targeting.TargetTypePlayer))
	assert.False(t, def.Requirement.Allows(targeting.TargetTypeCreature))

	def, ok = Lookup(NameFireball)
	require.True(t, ok)
	assert.True(t, def.Requirement.Allows(targeting.TargetTypeCreature))
	assert.Equal(t, "Deal 3 damage to opponent", def.Description)

	_, ok = Lookup("lightning")
	assert.False(t, ok)
}
