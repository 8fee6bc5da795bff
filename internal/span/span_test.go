package span

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestSpanIsSupersetOfSelf(t *testing.T) {
	s := New(0, 5)
	assert(t, s.IsSuperset(s), "span should be a superset of itself")
}

func TestSpanIsNotDisjointWithSelf(t *testing.T) {
	s := New(0, 5)
	assert(t, !s.IsDisjoint(s), "span should overlap itself")
}

func TestJoinMultipliesIDsAndUnionsRange(t *testing.T) {
	a := New(0, 3)
	b := New(5, 9)

	joined := Join(a, b)
	assert(t, joined.ID() == a.ID()*b.ID(), "joined id should be the product of inputs, got %d", joined.ID())
	assert(t, joined.Lo() == 0 && joined.Hi() == 9, "joined range should be the union, got (%d, %d)", joined.Lo(), joined.Hi())
}

func TestComposingIDsRecoversFactors(t *testing.T) {
	a := New(0, 1)
	b := New(1, 2)
	c := New(2, 3)

	joined := Join(Join(a, b), c)
	factors := joined.ComposingIDs()

	want := map[uint64]bool{a.ID(): true, b.ID(): true, c.ID(): true}
	for _, f := range factors {
		delete(want, f)
	}
	assert(t, len(want) == 0, "composing ids should recover all three atomic span ids, missing %v", want)
}

func TestTogetherMatchesSequentialJoin(t *testing.T) {
	a := New(0, 2)
	b := New(2, 4)
	c := New(4, 6)

	together := Together(a, b, c)
	sequential := Join(Join(a, b), c)

	assert(t, together.ID() == sequential.ID(), "Together id should match sequential Join id")
	assert(t, together.Lo() == sequential.Lo() && together.Hi() == sequential.Hi(), "Together range should match sequential Join range")
}
