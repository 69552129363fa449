package diag

import (
	"bytes"
	"strings"
	"testing"

	"daedalus/fileset"
	"daedalus/token"
)

func TestRenderPlain(t *testing.T) {
	reg := fileset.NewRegistry(false)
	id := reg.Add("quest.d", []byte("func void main() {}\n"))

	var l List
	l.Errorf(token.Span{File: id, Start: 5, End: 9}, "unknown function %q", "main")

	var buf bytes.Buffer
	Render(&buf, reg, &l, false)

	out := buf.String()
	if !strings.Contains(out, "quest.d:1:6") {
		t.Errorf("output missing position, got %q", out)
	}
	if !strings.Contains(out, "unknown function \"main\"") {
		t.Errorf("output missing message, got %q", out)
	}
}

func TestSymbolDisplay(t *testing.T) {
	got := symbolDisplay("\xFFINSTANCE_HELP")
	want := "�INSTANCE_HELP"
	if got != want {
		t.Errorf("symbolDisplay = %q, want %q", got, want)
	}
}

func TestSummary(t *testing.T) {
	var l List
	if Summary(&l) != "" {
		t.Errorf("empty list should summarize to empty string")
	}
	l.Add(Error, token.Span{}, "bad")
	l.Add(Warning, token.Span{}, "hm")
	if got := Summary(&l); got != "1 error, 1 warning" {
		t.Errorf("Summary = %q", got)
	}
}
