package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cory-johannsen/cardstack/internal/game/media"
)

// ErrUnknownCommand is returned by Parse for command words with no handler.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a parsed console line ready to run on the frame loop.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Args are the words after the command.
	Args []string
	run  func(t Target, args []string) (string, error)
}

// Run executes the command against t.
//
// Precondition: Called from the frame loop.
func (c Command) Run(t Target) (string, error) {
	return c.run(t, c.Args)
}

type definition struct {
	name    string
	aliases []string
	usage   string
	help    string
	minArgs int
	run     func(t Target, args []string) (string, error)
}

var definitions = []definition{
	{name: "help", aliases: []string{"?"}, usage: "help", help: "List commands"},
	{name: "var", usage: "var get <idx> | var set <idx> <value>", help: "Read or write a game variable", minArgs: 2, run: runVar},
	{name: "card", usage: "card <id> [transition]", help: "Go to a card of the current stack", minArgs: 1, run: runCard},
	{name: "stack", aliases: []string{"link"}, usage: "stack <id> <card>", help: "Go to a card of another stack", minArgs: 2, run: runStack},
	{name: "page", usage: "page drop", help: "Drop the held page", minArgs: 1, run: runPage},
	{name: "save", usage: "save <slot> [description]", help: "Save the game", minArgs: 1, run: runSave},
	{name: "load", usage: "load <slot>", help: "Load a saved game", minArgs: 1, run: runLoad},
	{name: "quit", aliases: []string{"exit"}, usage: "quit", help: "Stop the engine", run: runQuit},
}

// help reads definitions, so it is bound after package initialization.
func init() {
	definitions[0].run = runHelp
}

var byWord = func() map[string]*definition {
	m := make(map[string]*definition, len(definitions))
	for i := range definitions {
		d := &definitions[i]
		m[d.name] = d
		for _, a := range d.aliases {
			m[a] = d
		}
	}
	return m
}()

// Parse splits line into a command word and arguments and resolves the
// handler.
//
// Postcondition: Returns ErrUnknownCommand for unregistered words and an
// error carrying the usage line when arguments are missing.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.New("empty command")
	}
	word := strings.ToLower(fields[0])
	d, ok := byWord[word]
	if !ok {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, word)
	}
	args := fields[1:]
	if len(args) < d.minArgs {
		return Command{}, fmt.Errorf("usage: %s", d.usage)
	}
	return Command{Name: d.name, Args: args, run: d.run}, nil
}

func runHelp(Target, []string) (string, error) {
	lines := make([]string, 0, len(definitions))
	for _, d := range definitions {
		lines = append(lines, fmt.Sprintf("%-40s %s", d.usage, d.help))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func parseU16(s, what string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint16(v), nil
}

func runVar(t Target, args []string) (string, error) {
	idx, err := parseU16(args[1], "variable")
	if err != nil {
		return "", err
	}
	vars := t.State().Vars
	switch args[0] {
	case "get":
		return fmt.Sprintf("var %d = %d", idx, vars.Get(idx)), nil
	case "set":
		if len(args) < 3 {
			return "", errors.New("usage: var set <idx> <value>")
		}
		value, err := parseU16(args[2], "value")
		if err != nil {
			return "", err
		}
		vars.Set(idx, value)
		return fmt.Sprintf("var %d = %d", idx, value), nil
	default:
		return "", fmt.Errorf("unknown var action %q", args[0])
	}
}

func runCard(t Target, args []string) (string, error) {
	id, err := parseU16(args[0], "card")
	if err != nil {
		return "", err
	}
	transition := media.TransitionCopy
	if len(args) > 1 {
		v, err := parseU16(args[1], "transition")
		if err != nil {
			return "", err
		}
		transition = media.Transition(v)
	}
	if err := t.ChangeToCard(id, transition); err != nil {
		return "", err
	}
	return fmt.Sprintf("card %d", id), nil
}

func runStack(t Target, args []string) (string, error) {
	id, err := parseU16(args[0], "stack")
	if err != nil {
		return "", err
	}
	card, err := parseU16(args[1], "card")
	if err != nil {
		return "", err
	}
	if err := t.ChangeToStack(id, card, 0, 0); err != nil {
		return "", err
	}
	return fmt.Sprintf("stack %d card %d", id, card), nil
}

func runPage(t Target, args []string) (string, error) {
	if args[0] != "drop" {
		return "", fmt.Errorf("unknown page action %q", args[0])
	}
	t.DropPage()
	return "page dropped", nil
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(s)
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	return slot, nil
}

func runSave(t Target, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	desc := strings.Join(args[1:], " ")
	if desc == "" {
		desc = fmt.Sprintf("Save %d", slot)
	}
	if !t.SaveGame(slot, desc) {
		return "", fmt.Errorf("saving slot %d failed", slot)
	}
	return fmt.Sprintf("saved slot %d", slot), nil
}

func runLoad(t Target, args []string) (string, error) {
	slot, err := parseSlot(args[0])
	if err != nil {
		return "", err
	}
	ok, err := t.LoadGame(slot)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("slot %d could not be loaded", slot)
	}
	return fmt.Sprintf("loaded slot %d", slot), nil
}

func runQuit(t Target, _ []string) (string, error) {
	t.Quit()
	return "quitting", nil
}
