// internal/command/command.go
// Purpose: typed lines -> game commands. Verbs are matched by alias, then by
// unambiguous prefix, then by edit distance, so "nroth" still walks north.

package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// --- Types ---

// Verb is a canonical command name.
type Verb string

const (
	North     Verb = "north"
	South     Verb = "south"
	East      Verb = "east"
	West      Verb = "west"
	Goto      Verb = "goto"
	Look      Verb = "look"
	Open      Verb = "open"
	Close     Verb = "close"
	Collect   Verb = "collect"
	Deposit   Verb = "deposit"
	Inventory Verb = "inventory"
	Home      Verb = "home"
	Path      Verb = "path"
	Sensor    Verb = "sensor"
	Reset     Verb = "reset"
	Help      Verb = "help"
	Quit      Verb = "quit"
)

// Def describes one verb.
type Def struct {
	Verb    Verb
	Aliases []string
	Usage   string
}

// Command is a parsed line.
type Command struct {
	Verb Verb
	Args []string
	// Corrected is set when the verb was recovered by prefix or edit distance.
	Corrected bool
}

var (
	// ErrEmpty is returned for a blank line.
	ErrEmpty = errors.New("empty command")
	// ErrUnknown is returned when no verb is close enough.
	ErrUnknown = errors.New("unknown command")
	// ErrAmbiguous is returned when several verbs match equally well.
	ErrAmbiguous = errors.New("ambiguous command")
)

// Registry holds the known verbs.
type Registry struct {
	defs    []Def
	byAlias map[string]Verb
}

// --- Constructors ---

// NewRegistry builds a registry from defs. The canonical name is always an alias.
func NewRegistry(defs ...Def) *Registry {
	r := &Registry{byAlias: make(map[string]Verb)}
	for _, d := range defs {
		r.defs = append(r.defs, d)
		r.byAlias[string(d.Verb)] = d.Verb
		for _, a := range d.Aliases {
			r.byAlias[a] = d.Verb
		}
	}
	return r
}

// DefaultRegistry knows every game verb.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Def{Verb: North, Aliases: []string{"n", "up"}, Usage: "north"},
		Def{Verb: South, Aliases: []string{"s", "down"}, Usage: "south"},
		Def{Verb: East, Aliases: []string{"e", "right"}, Usage: "east"},
		Def{Verb: West, Aliases: []string{"w", "left"}, Usage: "west"},
		Def{Verb: Goto, Aliases: []string{"teleport", "tp"}, Usage: "goto <lat> <lng>"},
		Def{Verb: Look, Aliases: []string{"l", "map"}, Usage: "look"},
		Def{Verb: Open, Aliases: []string{"o", "inspect"}, Usage: "open <i,j>"},
		Def{Verb: Close, Aliases: []string{"c"}, Usage: "close"},
		Def{Verb: Collect, Aliases: []string{"take", "get"}, Usage: "collect <i:j#serial>"},
		Def{Verb: Deposit, Aliases: []string{"drop", "put"}, Usage: "deposit <i:j#serial>"},
		Def{Verb: Inventory, Aliases: []string{"inv", "i"}, Usage: "inventory"},
		Def{Verb: Home, Aliases: []string{"origin"}, Usage: "home <i:j#serial>"},
		Def{Verb: Path, Aliases: []string{"trail"}, Usage: "path"},
		Def{Verb: Sensor, Aliases: []string{"gps"}, Usage: "sensor on|off"},
		Def{Verb: Reset, Aliases: nil, Usage: "reset"},
		Def{Verb: Help, Aliases: []string{"h", "?"}, Usage: "help"},
		Def{Verb: Quit, Aliases: []string{"q", "exit"}, Usage: "quit"},
	)
}

// --- Public methods ---

// Defs returns the registered verbs in registration order.
func (r *Registry) Defs() []Def {
	return append([]Def(nil), r.defs...)
}

// Parse reads one line.
func (r *Registry) Parse(line string) (Command, error) {
	fields := strings.Fields(normalise(line))
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	head, args := fields[0], fields[1:]
	if head == "go" && len(args) > 0 {
		head, args = args[0], args[1:]
	}

	if v, ok := r.byAlias[head]; ok {
		return Command{Verb: v, Args: args}, nil
	}
	v, err := r.closest(head)
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: v, Args: args, Corrected: true}, nil
}

// --- Private helpers ---

func (r *Registry) closest(word string) (Verb, error) {
	if len(word) >= 2 {
		var hits []Verb
		for _, d := range r.defs {
			if strings.HasPrefix(string(d.Verb), word) {
				hits = append(hits, d.Verb)
			}
		}
		if len(hits) == 1 {
			return hits[0], nil
		}
		if len(hits) > 1 {
			return "", fmt.Errorf("%w: %q could be %s", ErrAmbiguous, word, joinVerbs(hits))
		}
	}

	if len(word) < 3 {
		return "", fmt.Errorf("%w: %q", ErrUnknown, word)
	}
	type scored struct {
		verb Verb
		dist int
	}
	var cands []scored
	for alias, v := range r.byAlias {
		if len(alias) < 3 {
			continue
		}
		dist := levenshtein.ComputeDistance(word, alias)
		if dist > distanceLimit(len(alias)) {
			continue
		}
		cands = append(cands, scored{verb: v, dist: dist})
	}
	if len(cands) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknown, word)
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist == cands[j].dist {
			return cands[i].verb < cands[j].verb
		}
		return cands[i].dist < cands[j].dist
	})
	best := cands[0]
	for _, c := range cands[1:] {
		if c.dist == best.dist && c.verb != best.verb {
			return "", fmt.Errorf("%w: %q could be %s or %s", ErrAmbiguous, word, best.verb, c.verb)
		}
	}
	return best.verb, nil
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func normalise(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, strings.TrimSpace(s))
}

func joinVerbs(vs []Verb) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
