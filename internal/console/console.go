// Package console runs a hot-seat match over numbered text menus.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/magefree/hearth-server-go/internal/game"
	"go.uber.org/zap"
)

// ErrInputClosed is returned when input ends before the match does.
var ErrInputClosed = errors.New("console: input closed before the match ended")

// Engine is the part of the game engine the console drives.
type Engine interface {
	GetMatch(matchID string) (*game.Match, error)
	ProcessAction(matchID string, action game.PlayerAction) (game.ActionResult, error)
}

// Console reads menu selections from in and prints the match to out.
type Console struct {
	engine Engine
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger

	printed int
}

// New creates a console bound to engine.
func New(engine Engine, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	return &Console{
		engine: engine,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger,
	}
}

type menuItem struct {
	label string
	run   func() error
}

// Play drives the match until it ends and returns its result.
func (c *Console) Play(matchID string) (game.Result, error) {
	m, err := c.engine.GetMatch(matchID)
	if err != nil {
		return game.Result{}, err
	}
	c.printed = 0

	for {
		c.flushMessages(m)
		if res, over := m.Result(); over {
			return res, nil
		}

		choices := m.Choices()
		switch choices.Phase {
		case "BLOCK":
			err = c.blockMenu(m, choices)
		case "MAIN":
			err = c.mainMenu(m, choices)
		default:
			return game.Result{}, fmt.Errorf("console: match %s is in phase %s", matchID, choices.Phase)
		}
		if err != nil {
			return game.Result{}, err
		}
	}
}

func (c *Console) flushMessages(m *game.Match) {
	msgs := m.Messages()
	for _, msg := range msgs[c.printed:] {
		fmt.Fprintln(c.out, msg)
	}
	c.printed = len(msgs)
}

func (c *Console) act(m *game.Match, action game.PlayerAction) error {
	if _, err := c.engine.ProcessAction(m.ID, action); err != nil {
		if errors.Is(err, game.ErrMatchOver) {
			return nil
		}
		// Fatal engine errors stop the session; the rest are reported and
		// the player picks again.
		if game.IsFatal(err) {
			return err
		}
		fmt.Fprintf(c.out, "Action rejected: %v\n", err)
	}
	return nil
}

func (c *Console) blockMenu(m *game.Match, choices game.Choices) error {
	if choices.Pending == nil {
		return fmt.Errorf("console: block phase without a pending attacker")
	}
	view := m.View(choices.PlayerID)
	self := playerView(view, choices.PlayerID)
	pending := *choices.Pending

	items := []menuItem{{
		label: fmt.Sprintf("%s: (%d HP)", self.Name, self.HP),
		run: func() error {
			return c.act(m, game.PlayerAction{Type: game.ActionTakeHit, PlayerID: choices.PlayerID})
		},
	}}
	for _, b := range choices.Blockers {
		items = append(items, menuItem{
			label: unitLabel(b),
			run: func() error {
				return c.act(m, game.PlayerAction{Type: game.ActionBlock, PlayerID: choices.PlayerID, BlockerID: b.ID})
			},
		})
	}
	items = append(items, c.forfeitItem(m, choices.PlayerID))

	subtitle := fmt.Sprintf("Defend against %s", unitLabel(pending))
	return c.choose("Block Menu", subtitle, items, false)
}

func (c *Console) mainMenu(m *game.Match, choices game.Choices) error {
	view := m.View(choices.PlayerID)
	self := playerView(view, choices.PlayerID)
	player := choices.PlayerID

	items := []menuItem{
		{label: "Attack with units", run: func() error { return c.attackMenu(m, choices) }},
		{label: "Play units from hand", run: func() error { return c.unitMenu(m, choices) }},
		{label: "Play spells from hand", run: func() error { return c.spellMenu(m, choices, self) }},
		{label: "Print field state", run: func() error { c.printBoard(view, player); return nil }},
		{label: "End turn", run: func() error {
			return c.act(m, game.PlayerAction{Type: game.ActionEndTurn, PlayerID: player})
		}},
		c.forfeitItem(m, player),
	}

	title := fmt.Sprintf("Main Phase - Round %d", view.Round)
	return c.choose(title, self.Status, items, false)
}

func (c *Console) attackMenu(m *game.Match, choices game.Choices) error {
	var items []menuItem
	for _, u := range choices.Attackers {
		items = append(items, menuItem{
			label: unitLabel(u),
			run: func() error {
				return c.act(m, game.PlayerAction{Type: game.ActionDeclareAttack, PlayerID: choices.PlayerID, CardID: u.ID})
			},
		})
	}
	return c.choose("Attack with Units on Field", "Units must wait one turn to attack or defend", items, true)
}

func (c *Console) unitMenu(m *game.Match, choices game.Choices) error {
	var items []menuItem
	for _, u := range choices.Units {
		items = append(items, menuItem{
			label: fmt.Sprintf("%s (M:%d): (%d ATK)-(%d HP)", u.Name, u.Cost, u.Attack, u.HP),
			run: func() error {
				return c.act(m, game.PlayerAction{Type: game.ActionPlayCard, PlayerID: choices.PlayerID, CardID: u.ID})
			},
		})
	}
	return c.choose("Place Unit on Field", "", items, true)
}

func (c *Console) spellMenu(m *game.Match, choices game.Choices, self game.PlayerView) error {
	var items []menuItem
	for _, s := range choices.Spells {
		items = append(items, menuItem{
			label: s.Card.Display,
			run:   func() error { return c.targetMenu(m, choices.PlayerID, s) },
		})
	}
	title := fmt.Sprintf("(Mana=%d/%d) Cast a spell from your hand then target", self.Mana, self.MaxMana)
	return c.choose(title, "", items, true)
}

func (c *Console) targetMenu(m *game.Match, playerID string, spell game.SpellChoice) error {
	var items []menuItem
	for _, opt := range spell.Targets {
		target := opt.Target
		items = append(items, menuItem{
			label: opt.Label,
			run: func() error {
				return c.act(m, game.PlayerAction{
					Type:     game.ActionPlayCard,
					PlayerID: playerID,
					CardID:   spell.Card.ID,
					Target:   target,
				})
			},
		})
	}
	return c.choose(fmt.Sprintf("Pick a target to cast %s on", spell.Card.Name), "", items, true)
}

func (c *Console) forfeitItem(m *game.Match, playerID string) menuItem {
	return menuItem{
		label: "Forfeit",
		run: func() error {
			return c.act(m, game.PlayerAction{Type: game.ActionForfeit, PlayerID: playerID})
		},
	}
}

func (c *Console) printBoard(view game.MatchView, playerID string) {
	self := playerView(view, playerID)
	var opp game.PlayerView
	for _, pv := range view.Players {
		if pv.PlayerID != playerID {
			opp = pv
		}
	}
	fmt.Fprintln(c.out, self.Status)
	fmt.Fprintf(c.out, "%s hand: %s\n", self.Name, displayList(self.Hand))
	fmt.Fprintf(c.out, "%s field: %s\n", self.Name, displayList(self.Field))
	fmt.Fprintf(c.out, "%s field: %s\n", opp.Name, displayList(opp.Field))
}

// choose prints a numbered menu and runs the picked item. With back set,
// option 0 returns without running anything. Invalid input re-prompts.
func (c *Console) choose(title, subtitle string, items []menuItem, back bool) error {
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, title)
		if subtitle != "" {
			fmt.Fprintln(c.out, subtitle)
		}
		for i, item := range items {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, item.label)
		}
		if back {
			fmt.Fprintln(c.out, "  0) Back")
		}
		fmt.Fprint(c.out, "> ")

		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return err
			}
			return ErrInputClosed
		}
		line := strings.TrimSpace(c.in.Text())
		n, err := strconv.Atoi(line)
		switch {
		case err == nil && back && n == 0:
			return nil
		case err == nil && n >= 1 && n <= len(items):
			return items[n-1].run()
		}
		fmt.Fprintf(c.out, "Invalid choice %q.\n", line)
		if c.logger != nil {
			c.logger.Debug("invalid menu choice", zap.String("menu", title), zap.String("input", line))
		}
	}
}

func playerView(view game.MatchView, playerID string) game.PlayerView {
	for _, pv := range view.Players {
		if pv.PlayerID == playerID {
			return pv
		}
	}
	return game.PlayerView{}
}

func unitLabel(u game.CardView) string {
	return fmt.Sprintf("%s: (%d ATK)-(%d HP)", u.Name, u.Attack, u.HP)
}

func displayList(cards []game.CardView) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.Display
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
