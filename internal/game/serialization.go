package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Snapshot captures the whole board with both hands revealed.
func (m *Match) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view := m.view("", true)
	return Snapshot{
		View:      view,
		Checksum:  StateChecksum(view),
		Timestamp: time.Now(),
	}
}

// StateChecksum hashes the parts of a view that follow from the seed and
// the actions taken. Card and match IDs and timestamps are left out, so
// two matches played the same way produce the same checksums.
func StateChecksum(view MatchView) string {
	sum := sha256.Sum256([]byte(canonicalView(view)))
	return hex.EncodeToString(sum[:])
}

func canonicalView(view MatchView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s;round=%d;", view.Phase, view.Round)
	if view.Pending != nil {
		b.WriteString("pending=")
		writeCard(&b, *view.Pending)
	}
	if view.Result != nil {
		fmt.Fprintf(&b, "result=%s>%s:%s@%d;", view.Result.WinnerID, view.Result.LoserID, view.Result.Reason, view.Result.Round)
	}
	for _, pv := range view.Players {
		fmt.Fprintf(&b, "player=%s;active=%t;hp=%d;mana=%d/%d;deck=%d;forfeit=%t;queue=%d;",
			pv.PlayerID, pv.PlayerID == view.ActivePlayerID, pv.HP, pv.Mana, pv.MaxMana,
			pv.DeckCount, pv.Forfeited, len(pv.AttackQueue))
		for _, zone := range [][]CardView{pv.Hand, pv.Field, pv.Discard} {
			b.WriteString("[")
			for _, c := range zone {
				writeCard(&b, c)
			}
			b.WriteString("]")
		}
	}
	for _, msg := range view.Messages {
		b.WriteString(msg)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeCard(b *strings.Builder, c CardView) {
	fmt.Fprintf(b, "%s/%s/%d/%d/%d/%t/%t;", c.Name, c.Zone, c.Cost, c.Attack, c.HP, c.CanAttack, c.CanDefend)
}
