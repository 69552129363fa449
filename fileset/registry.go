// Package fileset tracks the set of source files participating in a
// compilation and maps byte offsets to line/column positions for
// diagnostics.
package fileset

import (
	"fmt"
	"sort"

	"daedalus/token"
)

// File is one registered source file.
type File struct {
	Name string
	Src  []byte

	// lineOffsets[i] is the byte offset of the first byte of line i+1
	// (1-indexed lines, so lineOffsets[0] is always 0).
	lineOffsets []int
}

func newFile(name string, src []byte) *File {
	f := &File{Name: name, Src: src, lineOffsets: []int{0}}
	for i, b := range src {
		if b == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// Position returns the 1-indexed line and column for a byte offset.
func (f *File) Position(offset int) (line, col int) {
	i := sort.Search(len(f.lineOffsets), func(i int) bool {
		return f.lineOffsets[i] > offset
	})
	line = i // lineOffsets[i-1] <= offset < lineOffsets[i]
	col = offset - f.lineOffsets[i-1] + 1
	return line, col
}

// LineSpan returns the byte span of the given 1-indexed line, including its
// trailing newline if present.
func (f *File) LineSpan(line int) (token.Span, error) {
	if line < 1 || line > len(f.lineOffsets) {
		return token.Span{}, fmt.Errorf("line %d out of range (file has %d lines)", line, len(f.lineOffsets))
	}
	start := f.lineOffsets[line-1]
	end := len(f.Src)
	if line < len(f.lineOffsets) {
		end = f.lineOffsets[line]
	}
	return token.Span{Start: start, End: end}, nil
}

// builtinsFileName is the synthetic zero-length file registered at id 0
// when a Registry is constructed with legacyFileIDs true, reproducing the
// original tool's historical quirk of reserving file id 0 for engine
// built-ins rather than the first real source file.
const builtinsFileName = "<builtins>"

// Registry owns every File participating in a compilation and assigns each
// a monotonically increasing FileID in registration order.
type Registry struct {
	files []*File
}

// NewRegistry constructs an empty Registry. When legacyFileIDs is true, file
// id 0 is pre-reserved for a synthetic empty "<builtins>" file, so the first
// caller-registered file receives id 1 instead of id 0 - matching the
// original tool's on-disk layout for tools that inspect raw file indices.
func NewRegistry(legacyFileIDs bool) *Registry {
	r := &Registry{}
	if legacyFileIDs {
		r.files = append(r.files, newFile(builtinsFileName, nil))
	}
	return r
}

// Add registers a new file and returns its FileID.
func (r *Registry) Add(name string, src []byte) token.FileID {
	id := token.FileID(len(r.files))
	r.files = append(r.files, newFile(name, src))
	return id
}

// File returns the registered File for id, or nil if id is out of range.
func (r *Registry) File(id token.FileID) *File {
	if int(id) < 0 || int(id) >= len(r.files) {
		return nil
	}
	return r.files[id]
}

// Slice returns the source bytes covered by span. Panics if span.File is
// not registered; callers only ever build spans from tokens of files they
// themselves registered.
func (r *Registry) Slice(span token.Span) []byte {
	f := r.File(span.File)
	if f == nil {
		panic(fmt.Sprintf("fileset: unregistered file id %d", span.File))
	}
	return f.Src[span.Start:span.End]
}

// Position returns the human-readable "name:line:col" for the start of a
// span.
func (r *Registry) Position(span token.Span) string {
	f := r.File(span.File)
	if f == nil {
		return fmt.Sprintf("<unknown file %d>:%d", span.File, span.Start)
	}
	line, col := f.Position(span.Start)
	return fmt.Sprintf("%s:%d:%d", f.Name, line, col)
}
