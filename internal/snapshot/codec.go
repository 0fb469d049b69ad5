// internal/snapshot/codec.go
// Purpose: encode/decode of persisted coin lists and path history.
//
// Layout (persisted, do not change):
//   "i,j"       -> [{"i":..,"j":..,"serial":..}, ...]   cache contents in list order
//   "inventory" -> same shape                            player inventory
//   "path"      -> [[{"lat":..,"lng":..}, ...], ...]     traveled polylines
//
// Decoding is strict: unknown fields, missing fields, wrong types, negative
// serials, duplicate coins and trailing data are all ErrMalformed.

package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/grid"
)

// --- Constants ---

const (
	// InventoryKey holds the player inventory.
	InventoryKey = "inventory"
	// PathKey holds the traveled-path history.
	PathKey = "path"
)

// --- Types ---

// ErrMalformed marks a snapshot that failed validation.
var ErrMalformed = errors.New("snapshot: malformed")

// CoinRecord is the wire form of a coin.
type CoinRecord struct {
	I      *int `json:"i" jsonschema:"description=Origin cell row"`
	J      *int `json:"j" jsonschema:"description=Origin cell column"`
	Serial *int `json:"serial" jsonschema:"minimum=0,description=Index of the coin within its origin cache"`
}

// PointRecord is the wire form of a path point.
type PointRecord struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// --- Public methods ---

// EncodeCoins serializes a coin list. A nil list encodes as "[]".
func EncodeCoins(l coin.List) (string, error) {
	recs := make([]CoinRecord, len(l))
	for k := range l {
		c := l[k]
		recs[k] = CoinRecord{I: &c.I, J: &c.J, Serial: &c.Serial}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode coins: %w", err)
	}
	return string(b), nil
}

// DecodeCoins parses and validates a coin list produced by EncodeCoins.
func DecodeCoins(s string) (coin.List, error) {
	var recs []CoinRecord
	if err := decodeStrict(s, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		return nil, fmt.Errorf("%w: coin list is null", ErrMalformed)
	}
	out := make(coin.List, 0, len(recs))
	seen := make(map[coin.Coin]struct{}, len(recs))
	for k, r := range recs {
		if r.I == nil || r.J == nil || r.Serial == nil {
			return nil, fmt.Errorf("%w: record %d is missing a field", ErrMalformed, k)
		}
		if *r.Serial < 0 {
			return nil, fmt.Errorf("%w: record %d has negative serial", ErrMalformed, k)
		}
		c := coin.Coin{I: *r.I, J: *r.J, Serial: *r.Serial}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate coin %s", ErrMalformed, c)
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// EncodePath serializes path history.
func EncodePath(lines [][]grid.Point) (string, error) {
	recs := make([][]PointRecord, len(lines))
	for n, line := range lines {
		recs[n] = make([]PointRecord, len(line))
		for k := range line {
			p := line[k]
			recs[n][k] = PointRecord{Lat: &p.Lat, Lng: &p.Lng}
		}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", fmt.Errorf("encode path: %w", err)
	}
	return string(b), nil
}

// DecodePath parses and validates path history produced by EncodePath.
func DecodePath(s string) ([][]grid.Point, error) {
	var recs [][]PointRecord
	if err := decodeStrict(s, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		return nil, fmt.Errorf("%w: path is null", ErrMalformed)
	}
	out := make([][]grid.Point, len(recs))
	for n, line := range recs {
		if line == nil {
			return nil, fmt.Errorf("%w: polyline %d is null", ErrMalformed, n)
		}
		out[n] = make([]grid.Point, len(line))
		for k, r := range line {
			if r.Lat == nil || r.Lng == nil {
				return nil, fmt.Errorf("%w: point %d/%d is missing a field", ErrMalformed, n, k)
			}
			if !finite(*r.Lat) || !finite(*r.Lng) {
				return nil, fmt.Errorf("%w: point %d/%d is not finite", ErrMalformed, n, k)
			}
			out[n][k] = grid.Point{Lat: *r.Lat, Lng: *r.Lng}
		}
	}
	return out, nil
}

// --- Private helpers ---

func decodeStrict(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
