package effects

import (
	"sort"

	"github.com/magefree/hearth-server-go/internal/game/targeting"
)

// Effect names used by card templates.
const (
	NameDraw     = "draw"
	NameFireball = "fireball"
	NameHeal     = "heal"
)

var registry = map[string]Definition{
	NameDraw: {
		Name:        NameDraw,
		Description: "Draw 2 cards",
		Requirement: targeting.PlayerOnly(),
		Apply:       Draw,
	},
	NameFireball: {
		Name:        NameFireball,
		Description: "Deal 3 damage to opponent",
		Requirement: targeting.AnyTarget(),
		Apply:       Fireball,
	},
	NameHeal: {
		Name:        NameHeal,
		Description: "Heal 5 HP",
		Requirement: targeting.AnyTarget(),
		Apply:       Heal,
	},
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, bool) {
	def, ok := registry[name]
	return def, ok
}

// Names returns the registered effect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
