// Package simhash computes 64-bit SimHash fingerprints, used to notice when
// a navigation left the table content unchanged.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strconv"
	"strings"
)

// Fingerprint computes the SimHash of a token sequence. Each token is
// hashed with FNV-64a and votes on every bit of the result. Token order
// does not matter; an empty sequence hashes to 0.
func Fingerprint(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var votes [64]int
	h := fnv.New64a()
	for _, tok := range tokens {
		h.Reset()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for i := range votes {
			if sum&(1<<uint(i)) != 0 {
				votes[i]++
			} else {
				votes[i]--
			}
		}
	}

	var fp uint64
	for i, v := range votes {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// FingerprintText fingerprints the whitespace-separated words of text.
func FingerprintText(text string) uint64 {
	return Fingerprint(strings.Fields(text))
}

// FingerprintRows fingerprints a table. Every cell becomes a token prefixed
// with its column index, so equal values in different columns do not
// collide, and every whole row contributes one more token.
func FingerprintRows(rows [][]string) uint64 {
	tokens := make([]string, 0, len(rows)*4)
	for _, row := range rows {
		for col, cell := range row {
			tokens = append(tokens, strconv.Itoa(col)+":"+cell)
		}
		tokens = append(tokens, strings.Join(row, "\x1f"))
	}
	return Fingerprint(tokens)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are at most threshold bits apart.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
