package bitset

import "testing"

func TestSetClearIsSet(t *testing.T) {
	b := New(10)
	if b.IsSet(3) {
		t.Fatalf("bit 3 should start unset")
	}
	if !b.Set(3) {
		t.Fatalf("Set should report the bit was previously unset")
	}
	if !b.IsSet(3) {
		t.Fatalf("bit 3 should be set")
	}
	if b.Set(3) {
		t.Fatalf("Set on an already-set bit should report false")
	}
	if !b.Clear(3) {
		t.Fatalf("Clear should report the bit was previously set")
	}
	if b.IsSet(3) {
		t.Fatalf("bit 3 should be cleared")
	}
}

func TestCardinalityAcrossWords(t *testing.T) {
	b := New(0)
	bits := []int{0, 1, 63, 64, 65, 200}
	for _, i := range bits {
		b.Set(i)
	}
	if got := b.Cardinality(); got != len(bits) {
		t.Fatalf("cardinality = %d, want %d", got, len(bits))
	}
}

func TestUnion(t *testing.T) {
	a := New(0)
	a.Set(1)
	a.Set(70)
	b := New(0)
	b.Set(2)
	b.Set(70)

	u := a.Union(b)
	if u.Cardinality() != 3 {
		t.Fatalf("union cardinality = %d, want 3", u.Cardinality())
	}
	// a itself must be untouched by Union (non-mutating).
	if a.Cardinality() != 2 {
		t.Fatalf("Union mutated its receiver")
	}

	a.UnionInPlace(b)
	if a.Cardinality() != 3 {
		t.Fatalf("UnionInPlace cardinality = %d, want 3", a.Cardinality())
	}
}

func TestIntersectsDisjoint(t *testing.T) {
	a := New(0)
	a.Set(5)
	b := New(0)
	b.Set(6)
	if a.Intersects(b) {
		t.Fatalf("disjoint sets should not intersect")
	}
	if !a.Disjoint(b) {
		t.Fatalf("sets should be disjoint")
	}
	b.Set(5)
	if !a.Intersects(b) {
		t.Fatalf("sets sharing bit 5 should intersect")
	}
}

func TestCloneIndependence(t *testing.T) {
	a := New(0)
	a.Set(1)
	c := a.Clone()
	c.Set(2)
	if a.IsSet(2) {
		t.Fatalf("clone should be independent of the original")
	}
}

func TestIsZero(t *testing.T) {
	var b *BitSet
	if !b.IsZero() {
		t.Fatalf("nil bitset should report zero")
	}
	nb := New(0)
	if !nb.IsZero() {
		t.Fatalf("fresh bitset should report zero")
	}
	nb.Set(0)
	if nb.IsZero() {
		t.Fatalf("bitset with a set bit should not report zero")
	}
}
