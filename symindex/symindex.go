// Package symindex assigns every declared symbol a dense, stable id equal
// to its position in final append order, before any bytecode or symbol
// table is built. This mirrors the two-pass shape of the original tool:
// walk the AST once to decide ids, then walk it again (in symtab/codegen)
// to build records that reference those ids.
package symindex

import (
	"strings"

	"daedalus/ast"
)

// Kind tags what sort of declaration a symbol id names, used downstream by
// codegen to choose call and push instructions for references to it.
type Kind int

const (
	Other Kind = iota
	ExternFunction
	Function
	Instance
)

// helpSymbolName is the synthetic engine-reserved symbol that always
// occupies id 0, one byte-for-byte copy of the original tool's leading
// "\xFFINSTANCE_HELP" entry.
const helpSymbolName = "\xFFINSTANCE_HELP"

// Index maps canonical (upper-cased) symbol names to their dense id, and
// remembers which AST node first claimed each name so that codegen - which
// walks the same items a second time - can recognize and skip nodes that
// lost the first-occurrence-wins race during indexing.
type Index struct {
	order   []string
	ids     map[string]uint32
	kinds   map[string]Kind
	nodeIDs map[any]uint32
}

// Build walks every item of every file (in the given order) and assigns
// dense ids, first-occurrence-wins on duplicate names. Files must be walked
// in a stable, caller-determined order since that order is exactly what
// the final id assignment reflects.
func Build(files [][]ast.Item) *Index {
	idx := &Index{
		ids:     make(map[string]uint32),
		kinds:   make(map[string]Kind),
		nodeIDs: make(map[any]uint32),
	}

	idx.push(helpSymbolName, Other, nil)

	for _, items := range files {
		for _, item := range items {
			idx.handleItem(item)
		}
	}

	return idx
}

func canonical(name string) string {
	return strings.ToUpper(name)
}

// push assigns the next dense id to name if it has not been claimed yet. It
// reports whether this call was the one that claimed it.
func (idx *Index) push(name string, kind Kind, node any) bool {
	key := canonical(name)
	if _, exists := idx.ids[key]; exists {
		return false
	}
	id := uint32(len(idx.order))
	idx.order = append(idx.order, key)
	idx.ids[key] = id
	idx.kinds[key] = kind
	if node != nil {
		idx.nodeIDs[node] = id
	}
	return true
}

func (idx *Index) handleItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.ExternFuncItem:
		if idx.push(it.Name.Name, ExternFunction, it) {
			for _, param := range it.Params {
				idx.push(it.Name.Name+"."+param.Name.Name, Other, param)
			}
		}
	case *ast.FuncItem:
		if idx.push(it.Name.Name, Function, it) {
			for _, param := range it.Params {
				idx.push(it.Name.Name+"."+param.Name.Name, Other, param)
			}
		}
	case *ast.ClassItem:
		if idx.push(it.Name.Name, Other, it) {
			for _, field := range it.Fields {
				idx.push(it.Name.Name+"."+field.Name.Name, Other, field)
			}
		}
	case *ast.InstanceItem:
		idx.push(it.Name.Name, Instance, it)
	case *ast.PrototypeItem:
		idx.push(it.Name.Name, Other, it)
	case *ast.ConstItem:
		idx.push(it.Name.Name, Other, it)
	case *ast.VarItem:
		idx.push(it.Name.Name, Other, it)
	}
}

// ID returns the dense id assigned to name (matched case-insensitively),
// and whether that name was ever declared.
func (idx *Index) ID(name string) (uint32, bool) {
	id, ok := idx.ids[canonical(name)]
	return id, ok
}

// IDForNode returns the dense id assigned to the first AST node that
// claimed its name, keyed by pointer identity. A later, duplicate node with
// the same name was never assigned an id and is reported absent here -
// codegen uses that to silently skip duplicate-loser declarations rather
// than re-implementing the dedup rule itself.
func (idx *Index) IDForNode(node any) (uint32, bool) {
	id, ok := idx.nodeIDs[node]
	return id, ok
}

// Kind returns the Kind recorded for name.
func (idx *Index) Kind(name string) Kind {
	return idx.kinds[canonical(name)]
}

// Len returns the number of distinct symbols indexed, the size the final
// symbol table must have.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Names returns the canonical names in append (id) order.
func (idx *Index) Names() []string {
	return idx.order
}

// HelpSymbolName exports the id-0 symbol name. Package symtab keeps its own
// byte-identical copy rather than importing this package.
const HelpSymbolName = helpSymbolName
