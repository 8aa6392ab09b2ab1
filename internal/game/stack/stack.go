// Package stack describes the stacks of a game: the archive each one loads,
// where its movies live, the age it belongs to and the interpreter that runs
// its scripts.
package stack

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/cardstack/internal/game/state"
)

// ID identifies a stack.
type ID uint16

// Stack ids of the original game data.
const (
	Channelwood ID = 0
	Credits     ID = 1
	Demo        ID = 2
	Dni         ID = 3
	Intro       ID = 4
	MakingOf    ID = 5
	Mechanical  ID = 6
	Myst        ID = 7
	Selenitic   ID = 8
	DemoSlides  ID = 9
	DemoPreview ID = 10
	Stoneship   ID = 11
	Menu        ID = 12
)

// Interpreter kinds.
const (
	KindGeneric = "generic"
	KindMenu    = "menu"
	KindCredits = "credits"
)

// ErrUnknownStack is returned for stack ids missing from the catalog.
var ErrUnknownStack = errors.New("unknown stack")

// MovieRule sends movies whose name contains Contains to Dir instead of the
// stack's movie directory.
type MovieRule struct {
	Contains string
	Dir      string
}

// Descriptor is the static description of one stack.
type Descriptor struct {
	ID      ID
	Name    string
	Archive string
	// MovieDir is the folder under qtw/; empty means movies sit at the root.
	MovieDir   string
	MovieRules []MovieRule
	// Age is applied to the game globals on entry when HasAge is set.
	Age      state.Age
	HasAge   bool
	Saveable bool
	// Flyby is the movie played on arrival in the Masterpiece edition.
	Flyby       string
	Interpreter string
	ScriptDir   string
	// InstructionLimit bounds each Lua call; zero uses the scripting default.
	InstructionLimit int
	Params           map[string]string
}

// Validate reports the first structural problem of d.
//
// Postcondition: Returns nil when d can be registered in a catalog.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("stack %d: name must not be empty", d.ID)
	}
	if d.Archive == "" {
		return fmt.Errorf("stack %q: archive must not be empty", d.Name)
	}
	switch d.Interpreter {
	case KindGeneric, KindMenu, KindCredits:
	default:
		return fmt.Errorf("stack %q: unknown interpreter %q", d.Name, d.Interpreter)
	}
	for _, r := range d.MovieRules {
		if r.Contains == "" {
			return fmt.Errorf("stack %q: movie rule must name a substring", d.Name)
		}
	}
	return nil
}

// MovieDirFor returns the movie folder for name.
func (d *Descriptor) MovieDirFor(name string) string {
	for _, r := range d.MovieRules {
		if strings.Contains(name, r.Contains) {
			return r.Dir
		}
	}
	return d.MovieDir
}

// Param returns the named parameter or def.
func (d *Descriptor) Param(key, def string) string {
	if v, ok := d.Params[key]; ok {
		return v
	}
	return def
}

// Catalog indexes descriptors by id.
type Catalog struct {
	byID map[ID]*Descriptor
}

// NewCatalog validates descriptors and indexes them.
//
// Postcondition: Returns a catalog or an error naming the first invalid or
// duplicate descriptor.
func NewCatalog(descriptors ...*Descriptor) (*Catalog, error) {
	c := &Catalog{byID: make(map[ID]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("stack %d registered twice", d.ID)
		}
		c.byID[d.ID] = d
	}
	return c, nil
}

// Get returns the descriptor of id.
//
// Postcondition: Returns an error wrapping ErrUnknownStack when id is not
// in the catalog.
func (c *Catalog) Get(id ID) (*Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownStack, id)
	}
	return d, nil
}

// All returns every descriptor ordered by id.
func (c *Catalog) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.byID))
	for _, d := range c.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Override replaces or adds descriptors, returning a new catalog.
func (c *Catalog) Override(descriptors ...*Descriptor) (*Catalog, error) {
	merged := make(map[ID]*Descriptor, len(c.byID)+len(descriptors))
	for id, d := range c.byID {
		merged[id] = d
	}
	for _, d := range descriptors {
		merged[d.ID] = d
	}
	list := make([]*Descriptor, 0, len(merged))
	for _, d := range merged {
		list = append(list, d)
	}
	return NewCatalog(list...)
}

// ByName returns the descriptor named name.
func (c *Catalog) ByName(name string) (*Descriptor, bool) {
	for _, d := range c.byID {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// MovieFilename returns the archive-relative path of movie name in stack id.
// Stacks missing from the catalog place movies at the qtw root.
func (c *Catalog) MovieFilename(name string, id ID) string {
	dir := ""
	if d, ok := c.byID[id]; ok {
		dir = d.MovieDirFor(name)
	}
	if dir == "" {
		return "qtw/" + name + ".mov"
	}
	return "qtw/" + dir + "/" + name + ".mov"
}

// FlybyFilename returns the flyby movie path of stack id, or "" when it has
// none.
func (c *Catalog) FlybyFilename(id ID) string {
	d, ok := c.byID[id]
	if !ok || d.Flyby == "" {
		return ""
	}
	return "qtw/" + d.Flyby + ".mov"
}

// Default returns the catalog of the original game.
func Default() *Catalog {
	age := func(a state.Age) (state.Age, bool) { return a, true }
	d := func(id ID, name, archive, movies string) *Descriptor {
		return &Descriptor{ID: id, Name: name, Archive: archive, MovieDir: movies, Interpreter: KindGeneric}
	}
	channelwood := d(Channelwood, "channelwood", "channel", "channel")
	channelwood.MovieRules = []MovieRule{{Contains: "wmill", Dir: "channel2"}}
	channelwood.Age, channelwood.HasAge = age(state.AgeChannelwood)
	channelwood.Saveable = true
	channelwood.Flyby = "channelwood flyby"

	credits := d(Credits, "credits", "credits", "")
	credits.Interpreter = KindCredits
	credits.Params = map[string]string{"images": "6", "interval_ms": "7067"}

	demo := d(Demo, "demo", "demo", "")
	demo.Age, demo.HasAge = age(state.AgeSelenitic)

	dni := d(Dni, "dni", "dunny", "dunny")
	dni.Age, dni.HasAge = age(state.AgeDni)
	dni.Saveable = true

	mechanical := d(Mechanical, "mechanical", "mechan", "mech")
	mechanical.Age, mechanical.HasAge = age(state.AgeMechanical)
	mechanical.Saveable = true
	mechanical.Flyby = "mech age flyby"

	menu := d(Menu, "menu", "menu", "")
	menu.Interpreter = KindMenu

	myst := d(Myst, "myst", "myst", "myst")
	myst.Age, myst.HasAge = age(state.AgeMystLibrary)
	myst.Saveable = true
	myst.Flyby = "myst flyby"

	selenitic := d(Selenitic, "selenitic", "selen", "selen")
	selenitic.Age, selenitic.HasAge = age(state.AgeSelenitic)
	selenitic.Saveable = true
	selenitic.Flyby = "selenitic flyby"

	slides := d(DemoSlides, "slides", "slides", "")
	slides.Age, slides.HasAge = age(state.AgeStoneship)

	stoneship := d(Stoneship, "stoneship", "stone", "stone")
	stoneship.Age, stoneship.HasAge = age(state.AgeStoneship)
	stoneship.Saveable = true
	stoneship.Flyby = "stoneship flyby"

	c, err := NewCatalog(
		channelwood, credits, demo, dni,
		d(Intro, "intro", "intro", "intro"),
		d(MakingOf, "makingof", "making", ""),
		mechanical, myst, selenitic, slides,
		d(DemoPreview, "preview", "preview", ""),
		stoneship, menu,
	)
	if err != nil {
		panic(err)
	}
	return c
}
