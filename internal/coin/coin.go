// internal/coin/coin.go
// Purpose: coins (immutable, uniquely identified collectibles) and the ordered
// lists that hold them. Caches and the player inventory are both Lists.

package coin

import (
	"errors"
	"fmt"
	"slices"
)

// --- Types ---

// Coin is identified by its origin cell and its serial within that cell.
type Coin struct {
	I      int `json:"i"`
	J      int `json:"j"`
	Serial int `json:"serial"`
}

// String renders the coin as "i:j#serial".
func (c Coin) String() string {
	return fmt.Sprintf("%d:%d#%d", c.I, c.J, c.Serial)
}

// Parse reads the "i:j#serial" form produced by String.
func Parse(s string) (Coin, error) {
	var c Coin
	n, err := fmt.Sscanf(s, "%d:%d#%d", &c.I, &c.J, &c.Serial)
	if err != nil || n != 3 {
		return Coin{}, fmt.Errorf("parse coin %q: want i:j#serial", s)
	}
	if c.Serial < 0 {
		return Coin{}, fmt.Errorf("parse coin %q: negative serial", s)
	}
	return c, nil
}

// List is an ordered collection of coins.
type List []Coin

// ErrNotFound is returned when a coin is not in a list.
var ErrNotFound = errors.New("coin not in container")

// --- Public methods ---

// Index returns the position of c, or -1.
func (l List) Index(c Coin) int {
	return slices.Index(l, c)
}

// Contains reports whether c is in the list.
func (l List) Contains(c Coin) bool {
	return l.Index(c) >= 0
}

// Without returns a copy of l with c removed, preserving the order of the rest.
// The receiver is left untouched.
func (l List) Without(c Coin) (List, error) {
	k := l.Index(c)
	if k < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, c)
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:k]...)
	return append(out, l[k+1:]...), nil
}

// With returns a copy of l with c appended.
func (l List) With(c Coin) List {
	out := make(List, 0, len(l)+1)
	out = append(out, l...)
	return append(out, c)
}

// Clone returns an independent copy. A nil list clones to an empty, non-nil list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}
