package engine

import (
	"hash/fnv"
	"strings"

	"github.com/waftester/waftester/pkg/fp"
)

// Signature is an opaque soft-body fingerprint. It supports Refine, which
// folds a new body sample into the signature (monotone: the result matches
// at least everything the inputs have in common), and Similar, a
// ratio-distance comparison against another signature.
//
// The underlying fingerprint is a 64-bit simhash — the same locality
// sensitive hash pkg/fp.Simhash computes for WAF block-page deduplication —
// extended here to carry its per-bit vote tally so repeated Refine calls
// accumulate evidence instead of discarding it.
type Signature struct {
	votes     [64]int
	samples   int
	threshold float64
}

// NewSignature builds a Signature from a single body sample using the
// configured similarity threshold (relative Hamming distance, e.g. 0.1 for
// "at most 10% of bits differ").
func NewSignature(body []byte, threshold float64) *Signature {
	s := &Signature{threshold: threshold}
	s.addSample(body)
	return s
}

// addSample folds the words of body into the vote tally, using the same
// per-word FNV-64a hashing pkg/fp.Simhash uses.
func (s *Signature) addSample(body []byte) {
	words := strings.Fields(strings.ToLower(string(body)))
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		wh := h.Sum64()
		for i := 0; i < 64; i++ {
			if (wh>>i)&1 == 1 {
				s.votes[i]++
			} else {
				s.votes[i]--
			}
		}
	}
	s.samples++
}

// Hash returns the current 64-bit fingerprint derived from the vote tally.
func (s *Signature) Hash() uint64 {
	var h uint64
	for i := 0; i < 64; i++ {
		if s.votes[i] > 0 {
			h |= 1 << i
		}
	}
	return h
}

// Refine returns a new Signature whose vote tally includes body's
// contribution in addition to the receiver's. Refine is idempotent
// (refine(b) and refine(b).refine(b) derive the same Hash, since folding
// the same sample twice only reinforces already-decided bit signs) and
// commutative over repeated similar bodies (order of near-identical
// samples does not change which sign wins per bit).
func (s *Signature) Refine(body []byte) *Signature {
	clone := &Signature{votes: s.votes, samples: s.samples, threshold: s.threshold}
	clone.addSample(body)
	return clone
}

// Similar reports whether s and other are within the similarity threshold:
// their Hamming distance, as a fraction of 64 bits, is at most the larger
// of the two signatures' configured thresholds. Using the larger threshold
// keeps the comparison symmetric regardless of which signature the
// threshold was configured on.
func (s *Signature) Similar(other *Signature) bool {
	if s == nil || other == nil {
		return false
	}
	threshold := s.threshold
	if other.threshold > threshold {
		threshold = other.threshold
	}
	dist := fp.HammingDistance(s.Hash(), other.Hash())
	return float64(dist)/64.0 <= threshold
}
