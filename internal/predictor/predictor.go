// Package predictor implements a byte delta predictor.
//
// Encode replaces every byte but the first with its difference from the
// preceding byte, modulo 256. After byte-plane interleaving, smooth float
// data turns into long runs of small deltas that compress well.
package predictor

// Encode applies delta prediction to data in place.
func Encode(data []byte) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// Decode reverses Encode in place.
func Decode(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
