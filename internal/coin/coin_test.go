package coin

import (
	"errors"
	"testing"
)

func TestStringParseRoundTrip(t *testing.T) {
	for _, c := range []Coin{{0, 0, 0}, {2, 3, 17}, {-8, 12, 99}, {369995, -1220533, 4}} {
		got, err := Parse(c.String())
		if err != nil {
			t.Fatalf("parse %q: %v", c.String(), err)
		}
		if got != c {
			t.Fatalf("Parse(%q) = %+v, want %+v", c.String(), got, c)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2,3,0", "a:b#c", "1:2#-3"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) expected error", s)
		}
	}
}

func TestWithoutPreservesOrderAndReceiver(t *testing.T) {
	l := List{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}}
	out, err := l.Without(Coin{0, 0, 1})
	if err != nil {
		t.Fatalf("without: %v", err)
	}
	want := List{{0, 0, 0}, {0, 0, 2}}
	if len(out) != len(want) || out[0] != want[0] || out[1] != want[1] {
		t.Fatalf("Without = %v, want %v", out, want)
	}
	if len(l) != 3 || l[1] != (Coin{0, 0, 1}) {
		t.Fatalf("receiver mutated: %v", l)
	}
}

func TestWithoutMissingCoin(t *testing.T) {
	l := List{{1, 1, 0}}
	if _, err := l.Without(Coin{1, 1, 5}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWithAppends(t *testing.T) {
	l := List{{1, 1, 0}}
	out := l.With(Coin{2, 2, 0})
	if len(out) != 2 || out[1] != (Coin{2, 2, 0}) {
		t.Fatalf("With = %v", out)
	}
	if len(l) != 1 {
		t.Fatalf("receiver mutated: %v", l)
	}
}

func TestCloneNil(t *testing.T) {
	var l List
	c := l.Clone()
	if c == nil || len(c) != 0 {
		t.Fatalf("Clone(nil) = %#v", c)
	}
}
