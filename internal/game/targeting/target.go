package targeting

import (
	"fmt"
	"strings"
)

// TargetType represents the kind of object a spell can target.
type TargetType string

const (
	// TargetTypePlayer targets a player's health pool.
	TargetTypePlayer TargetType = "PLAYER"
	// TargetTypeCreature targets a creature on either field.
	TargetTypeCreature TargetType = "CREATURE"
)

// ParseTargetType converts user input into a TargetType.
func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(strings.ToUpper(strings.TrimSpace(s))) {
	case TargetTypePlayer:
		return TargetTypePlayer, nil
	case TargetTypeCreature:
		return TargetTypeCreature, nil
	default:
		return "", fmt.Errorf("unknown target type %q", s)
	}
}

// UnmarshalText lets decoded targets name their type in any case.
func (t *TargetType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = ""
		return nil
	}
	parsed, err := ParseTargetType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Target identifies a single spell target.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// PlayerTarget builds a target pointing at a player.
func PlayerTarget(playerID string) Target {
	return Target{Type: TargetTypePlayer, ID: playerID}
}

// CreatureTarget builds a target pointing at a creature card.
func CreatureTarget(cardID string) Target {
	return Target{Type: TargetTypeCreature, ID: cardID}
}

// IsZero reports whether no target was chosen.
func (t Target) IsZero() bool {
	return t.ID == ""
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Type, t.ID)
}

// TargetRequirement defines which kinds of targets a spell accepts.
type TargetRequirement struct {
	// Types lists the accepted target kinds.
	Types []TargetType
	// Description is a human-readable description of the requirement.
	Description string
}

// AnyTarget accepts a player or a creature.
func AnyTarget() TargetRequirement {
	return TargetRequirement{
		Types:       []TargetType{TargetTypePlayer, TargetTypeCreature},
		Description: "any player or creature",
	}
}

// PlayerOnly accepts players only.
func PlayerOnly() TargetRequirement {
	return TargetRequirement{
		Types:       []TargetType{TargetTypePlayer},
		Description: "a player",
	}
}

// Allows reports whether the requirement accepts the given kind.
func (r TargetRequirement) Allows(t TargetType) bool {
	for _, allowed := range r.Types {
		if allowed == t {
			return true
		}
	}
	return false
}
