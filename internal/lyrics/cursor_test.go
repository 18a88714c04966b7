package lyrics

import "testing"

func threeLineDoc() *Document {
	return NewDocument([]Line{{0, "line0"}, {1000, "line1"}, {2000, "line2"}})
}

func TestCursorMonotonicAdvance(t *testing.T) {
	c := NewCursor(threeLineDoc())

	positions := []int64{0, 500, 1000, 1500, 2000, 9999}
	want := []string{"line0", "line0", "line1", "line1", "line2", "line2"}

	for i, pos := range positions {
		line, ok := c.Advance(pos)
		if !ok {
			t.Fatalf("Advance(%d) reported no line", pos)
		}
		if line.Text != want[i] {
			t.Errorf("Advance(%d) = %q, want %q", pos, line.Text, want[i])
		}
	}
	if c.Index() != 2 {
		t.Fatalf("Index() = %d, want 2", c.Index())
	}
}

func TestCursorBackwardCorrection(t *testing.T) {
	c := NewCursor(threeLineDoc())
	c.Advance(9999)
	if c.Index() != 2 {
		t.Fatalf("Index() = %d, want 2", c.Index())
	}

	line, ok := c.Advance(500)
	if !ok || line.Text != "line0" || c.Index() != 0 {
		t.Fatalf("Advance(500) = %q (index %d), want line0 at index 0", line.Text, c.Index())
	}
}

func TestCursorBeforeStart(t *testing.T) {
	doc := NewDocument([]Line{{1000, "a"}, {2000, "b"}})
	c := NewCursor(doc)

	if _, ok := c.Advance(999); ok {
		t.Fatal("Advance before the first timestamp should report no line")
	}
	if c.Index() != -1 {
		t.Fatalf("Index() = %d, want -1", c.Index())
	}

	c.Advance(1500)
	if _, ok := c.Advance(-300); ok {
		t.Fatal("backward jump before the first line should report no line")
	}
	if c.Index() != -1 {
		t.Fatalf("Index() = %d, want -1 after jumping back before start", c.Index())
	}
}

func TestCursorSkipsSeveralLines(t *testing.T) {
	doc := NewDocument([]Line{{0, "a"}, {100, "b"}, {200, "c"}, {300, "d"}, {400, "e"}})
	c := NewCursor(doc)
	c.Advance(0)

	line, _ := c.Advance(350)
	if line.Text != "d" || c.Index() != 3 {
		t.Fatalf("Advance(350) = %q (index %d), want d at index 3", line.Text, c.Index())
	}
}

func TestCursorTies(t *testing.T) {
	doc := NewDocument([]Line{{0, "a"}, {1000, "b1"}, {1000, "b2"}, {2000, "c"}})

	forward := NewCursor(doc)
	forward.Advance(0)
	fwd, _ := forward.Advance(1000)

	backward := NewCursor(doc)
	backward.Advance(5000)
	back, _ := backward.Advance(1000)

	if fwd != back {
		t.Fatalf("forward walk gave %q, backward search gave %q", fwd.Text, back.Text)
	}
	if fwd.Text != "b2" {
		t.Fatalf("tied timestamps should settle on the last one, got %q", fwd.Text)
	}
}

func TestCursorIdempotent(t *testing.T) {
	c := NewCursor(threeLineDoc())
	first, _ := c.Advance(1200)
	second, _ := c.Advance(1200)
	if first != second {
		t.Fatalf("Advance is not idempotent: %q then %q", first.Text, second.Text)
	}
}

func TestCursorEmptyDocument(t *testing.T) {
	for _, doc := range []*Document{nil, {}, Parse("nothing here")} {
		c := NewCursor(doc)
		if _, ok := c.Advance(1000); ok {
			t.Fatal("empty document should never produce a line")
		}
	}
}

func TestCursorReset(t *testing.T) {
	c := NewCursor(threeLineDoc())
	c.Advance(1500)
	c.Reset()
	if c.Index() != -1 {
		t.Fatalf("Index() after Reset = %d, want -1", c.Index())
	}
}
