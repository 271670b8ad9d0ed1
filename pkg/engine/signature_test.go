package engine

import "testing"

func TestSignature_IdenticalBodiesSimilar(t *testing.T) {
	t.Parallel()
	body := []byte("404 Not Found: the page you requested does not exist")
	a := NewSignature(body, DefaultCustom404SignatureThreshold)
	b := NewSignature(body, DefaultCustom404SignatureThreshold)
	if !a.Similar(b) {
		t.Errorf("identical bodies should be similar")
	}
	if a.Hash() != b.Hash() {
		t.Errorf("identical bodies should hash equal: %d != %d", a.Hash(), b.Hash())
	}
}

func TestSignature_DifferentBodiesNotSimilar(t *testing.T) {
	t.Parallel()
	a := NewSignature([]byte("404 Not Found page with a generic error message"), 0.05)
	b := NewSignature([]byte("<html><body><h1>Welcome to the admin dashboard</h1></body></html>"), 0.05)
	if a.Similar(b) {
		t.Errorf("unrelated bodies should not be similar")
	}
}

func TestSignature_RefineIsIdempotent(t *testing.T) {
	t.Parallel()
	body := []byte("soft 404: nothing found at this location")
	base := NewSignature(body, DefaultCustom404SignatureThreshold)

	once := base.Refine(body)
	twice := once.Refine(body)

	if once.Hash() != twice.Hash() {
		t.Errorf("refining with the same sample twice should not change the hash: %d != %d", once.Hash(), twice.Hash())
	}
}

func TestSignature_RefineDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()
	body := []byte("404 not found")
	base := NewSignature(body, DefaultCustom404SignatureThreshold)
	before := base.Hash()

	_ = base.Refine([]byte("completely unrelated admin dashboard content here"))

	if base.Hash() != before {
		t.Errorf("Refine must not mutate its receiver: hash changed from %d to %d", before, base.Hash())
	}
}

func TestSignature_SimilarUsesLooserThreshold(t *testing.T) {
	t.Parallel()
	body1 := []byte("404 not found: resource missing from server entirely")
	body2 := []byte("404 not found: resource missing from server, slight variant")

	strict := NewSignature(body1, 0.0)
	loose := NewSignature(body2, 1.0)

	if !strict.Similar(loose) {
		t.Errorf("Similar should use the looser (larger) of the two thresholds")
	}
}
