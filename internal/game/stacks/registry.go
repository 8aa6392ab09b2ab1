// Package stacks builds the script interpreter of each stack: the generic
// interpreter extended by sandboxed Lua scripts, the main menu and the
// credits slideshow.
package stacks

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/cardstack/internal/game/script"
	"github.com/cory-johannsen/cardstack/internal/game/stack"
	"github.com/cory-johannsen/cardstack/internal/game/state"
	"github.com/cory-johannsen/cardstack/internal/scripting"
)

// ErrUnknownKind is returned for descriptors naming an unregistered
// interpreter kind.
var ErrUnknownKind = errors.New("unknown interpreter kind")

// Deps are the collaborators handed to every interpreter factory.
type Deps struct {
	Host  script.Host
	State *state.GameState
	// Scripts runs Lua stack scripts; nil disables them.
	Scripts *scripting.Manager
	// HasMenu is set when the game ships a main menu stack.
	HasMenu bool
	Logger  *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return d.Host.Logger()
}

// Factory creates the interpreter of the stack described by d.
type Factory func(d *stack.Descriptor, deps Deps) (script.Interpreter, error)

// Registry maps interpreter kinds to factories.
//
// Invariant: each kind is registered at most once.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a Registry holding the built-in kinds.
//
// Postcondition: stack.KindGeneric, stack.KindMenu and stack.KindCredits
// are registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories[stack.KindGeneric] = func(d *stack.Descriptor, deps Deps) (script.Interpreter, error) {
		return NewGeneric(d, deps)
	}
	r.factories[stack.KindMenu] = func(d *stack.Descriptor, deps Deps) (script.Interpreter, error) {
		return NewMenu(d, deps)
	}
	r.factories[stack.KindCredits] = func(d *stack.Descriptor, deps Deps) (script.Interpreter, error) {
		return NewCredits(d, deps)
	}
	return r
}

// Register adds a factory for kind.
//
// Postcondition: returns error on kind collision.
func (r *Registry) Register(kind string, f Factory) error {
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("stacks.Registry: kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// New creates the interpreter of d.
//
// Precondition: deps.Host and deps.State must be non-nil.
// Postcondition: Returns an error wrapping ErrUnknownKind when d names an
// unregistered kind.
func (r *Registry) New(d *stack.Descriptor, deps Deps) (script.Interpreter, error) {
	f, ok := r.factories[d.Interpreter]
	if !ok {
		return nil, fmt.Errorf("%w %q for stack %q", ErrUnknownKind, d.Interpreter, d.Name)
	}
	return f(d, deps)
}

// Build looks id up in catalog and creates its interpreter.
//
// Postcondition: Returns an error wrapping stack.ErrUnknownStack when id is
// not in catalog.
func (r *Registry) Build(catalog *stack.Catalog, id stack.ID, deps Deps) (script.Interpreter, error) {
	d, err := catalog.Get(id)
	if err != nil {
		return nil, err
	}
	return r.New(d, deps)
}
