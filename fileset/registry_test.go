package fileset

import (
	"strings"
	"testing"

	"daedalus/token"
)

func TestNewRegistryLegacyFileIDsReservesSlot0(t *testing.T) {
	r := NewRegistry(true)
	id := r.Add("hero.d", []byte("var int x;\n"))
	if id != 1 {
		t.Fatalf("first registered file id = %d, want 1", id)
	}
	if r.File(0).Name != builtinsFileName {
		t.Errorf("file 0 name = %q, want %q", r.File(0).Name, builtinsFileName)
	}
}

func TestNewRegistryWithoutLegacyIDs(t *testing.T) {
	r := NewRegistry(false)
	id := r.Add("hero.d", []byte("var int x;\n"))
	if id != 0 {
		t.Fatalf("first registered file id = %d, want 0", id)
	}
}

func TestPositionLineAndColumn(t *testing.T) {
	r := NewRegistry(false)
	id := r.Add("a.d", []byte("abc\ndef\nghi"))
	f := r.File(id)

	cases := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{8, 3, 1},
	}
	for _, c := range cases {
		line, col := f.Position(c.offset)
		if line != c.wantLine || col != c.wantCol {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", c.offset, line, col, c.wantLine, c.wantCol)
		}
	}
}

func TestLineSpan(t *testing.T) {
	r := NewRegistry(false)
	id := r.Add("a.d", []byte("abc\ndef\nghi"))
	f := r.File(id)

	span, err := f.LineSpan(2)
	if err != nil {
		t.Fatalf("LineSpan(2): %v", err)
	}
	if string(f.Src[span.Start:span.End]) != "def\n" {
		t.Errorf("line 2 = %q, want %q", f.Src[span.Start:span.End], "def\n")
	}

	span, err = f.LineSpan(3)
	if err != nil {
		t.Fatalf("LineSpan(3): %v", err)
	}
	if string(f.Src[span.Start:span.End]) != "ghi" {
		t.Errorf("line 3 = %q, want %q", f.Src[span.Start:span.End], "ghi")
	}
}

func TestLineSpanOutOfRange(t *testing.T) {
	r := NewRegistry(false)
	id := r.Add("a.d", []byte("abc"))
	f := r.File(id)

	if _, err := f.LineSpan(0); err == nil {
		t.Error("expected line 0 to be out of range")
	}
	if _, err := f.LineSpan(5); err == nil {
		t.Error("expected line 5 to be out of range")
	}
}

func TestSlicePanicsOnUnregisteredFile(t *testing.T) {
	r := NewRegistry(false)
	defer func() {
		if recover() == nil {
			t.Error("expected Slice to panic on an unregistered file id")
		}
	}()
	r.Slice(token.Span{File: 99, Start: 0, End: 1})
}

func TestRegistryPositionFormatting(t *testing.T) {
	r := NewRegistry(false)
	id := r.Add("hero.d", []byte("abc\ndef"))
	pos := r.Position(token.Span{File: id, Start: 5, End: 6})
	if !strings.HasPrefix(pos, "hero.d:2:") {
		t.Errorf("Position = %q, want prefix \"hero.d:2:\"", pos)
	}
}

func TestRegistryPositionUnknownFile(t *testing.T) {
	r := NewRegistry(false)
	pos := r.Position(token.Span{File: 42, Start: 0, End: 1})
	if !strings.Contains(pos, "unknown file") {
		t.Errorf("Position for unregistered file = %q, want it to mention an unknown file", pos)
	}
}
