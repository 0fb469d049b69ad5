// internal/gen/seed.go
// Purpose: seed strings for the hash-based generator.
// Seeds are part of the world definition: changing one reshuffles every cache.

package gen

import "strconv"

// --- Constants ---

// sizePurpose tags the sizing seed so it never equals the existence seed.
const sizePurpose = "initialValue"

// --- Public methods ---

// ExistenceSeed is "i,j".
func ExistenceSeed(i, j int) string {
	return strconv.Itoa(i) + "," + strconv.Itoa(j)
}

// SizeSeed is "i,j,initialValue".
func SizeSeed(i, j int) string {
	return ExistenceSeed(i, j) + "," + sizePurpose
}
