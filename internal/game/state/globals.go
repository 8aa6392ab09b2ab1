package state

import (
	"fmt"
	"sort"
)

// Age is the age the player currently stands in.
type Age uint16

const (
	AgeSelenitic   Age = 0
	AgeStoneship   Age = 1
	AgeMystLibrary Age = 2
	AgeMechanical  Age = 3
	AgeChannelwood Age = 4
	AgeIntro       Age = 5
	AgeDni         Age = 6
	AgeMyst        Age = 7
)

var ageNames = map[string]Age{
	"selenitic":   AgeSelenitic,
	"stoneship":   AgeStoneship,
	"library":     AgeMystLibrary,
	"mechanical":  AgeMechanical,
	"channelwood": AgeChannelwood,
	"intro":       AgeIntro,
	"dni":         AgeDni,
	"myst":        AgeMyst,
}

// ParseAge resolves an age by name.
func ParseAge(name string) (Age, error) {
	a, ok := ageNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown age %q", name)
	}
	return a, nil
}

// String returns the age's name.
func (a Age) String() string {
	for name, v := range ageNames {
		if v == a {
			return name
		}
	}
	return fmt.Sprintf("age(%d)", uint16(a))
}

// HeldPage identifies the page the player carries.
type HeldPage uint16

const (
	NoPage HeldPage = 0

	BlueLibraryPage     HeldPage = 1
	BlueSeleniticPage   HeldPage = 2
	BlueMechanicalPage  HeldPage = 3
	BlueStoneshipPage   HeldPage = 4
	BlueChannelwoodPage HeldPage = 5
	BlueFireplacePage   HeldPage = 6

	RedLibraryPage     HeldPage = 7
	RedSeleniticPage   HeldPage = 8
	RedMechanicalPage  HeldPage = 9
	RedStoneshipPage   HeldPage = 10
	RedChannelwoodPage HeldPage = 11
	RedFireplacePage   HeldPage = 12

	WhitePage HeldPage = 13
)

// Cursor ids.
const (
	DefaultCursor   uint16 = 3000
	WhitePageCursor uint16 = 800
	RedPageCursor   uint16 = 801
	BluePageCursor  uint16 = 802
)

// IsBlue reports whether p is one of the blue pages.
func (p HeldPage) IsBlue() bool { return p >= BlueLibraryPage && p <= BlueFireplacePage }

// IsRed reports whether p is one of the red pages.
func (p HeldPage) IsRed() bool { return p >= RedLibraryPage && p <= RedFireplacePage }

// Cursor returns the main cursor shown while p is held.
func (p HeldPage) Cursor() uint16 {
	switch {
	case p == WhitePage:
		return WhitePageCursor
	case p.IsRed():
		return RedPageCursor
	case p.IsBlue():
		return BluePageCursor
	default:
		return DefaultCursor
	}
}

// Globals are the state fields that do not live in the variable store.
type Globals struct {
	CurrentAge  Age      `msgpack:"current_age"`
	HeldPage    HeldPage `msgpack:"held_page"`
	ZipMode     bool     `msgpack:"zip_mode"`
	Transitions bool     `msgpack:"transitions"`
}

// ZipDests records, per stack, the cards flagged as zip destinations that
// the player has visited.
type ZipDests struct {
	byStack map[uint16]map[uint16]bool
}

// NewZipDests creates an empty set.
func NewZipDests() *ZipDests {
	return &ZipDests{byStack: make(map[uint16]map[uint16]bool)}
}

// Add records card as a known destination of stack.
func (z *ZipDests) Add(stack, card uint16) {
	cards, ok := z.byStack[stack]
	if !ok {
		cards = make(map[uint16]bool)
		z.byStack[stack] = cards
	}
	cards[card] = true
}

// Has reports whether card is a known destination of stack.
func (z *ZipDests) Has(stack, card uint16) bool {
	return z.byStack[stack][card]
}

// Snapshot returns the destinations as sorted card lists keyed by stack.
func (z *ZipDests) Snapshot() map[uint16][]uint16 {
	out := make(map[uint16][]uint16, len(z.byStack))
	for stack, cards := range z.byStack {
		list := make([]uint16, 0, len(cards))
		for c := range cards {
			list = append(list, c)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		out[stack] = list
	}
	return out
}

// Restore replaces the set with snap.
func (z *ZipDests) Restore(snap map[uint16][]uint16) {
	z.byStack = make(map[uint16]map[uint16]bool, len(snap))
	for stack, cards := range snap {
		for _, c := range cards {
			z.Add(stack, c)
		}
	}
}

// GameState aggregates the persisted state.
type GameState struct {
	Vars    *Vars
	Globals Globals
	Zip     *ZipDests
}

// NewGameState creates a fresh state with transitions and zip mode taken
// from the runtime settings.
func NewGameState(zipMode, transitions bool) *GameState {
	return &GameState{
		Vars: NewVars(0),
		Globals: Globals{
			CurrentAge:  AgeIntro,
			ZipMode:     zipMode,
			Transitions: transitions,
		},
		Zip: NewZipDests(),
	}
}

// Reset starts a new game: variables, held page and zip destinations are
// cleared while the runtime settings are kept.
func (st *GameState) Reset() {
	st.Vars.Restore(nil)
	st.Globals = Globals{
		CurrentAge:  AgeIntro,
		ZipMode:     st.Globals.ZipMode,
		Transitions: st.Globals.Transitions,
	}
	st.Zip.Restore(nil)
}
