// Package builtin resolves extern function names to the dispatch address
// the host engine binds them to. A real host supplies its own table built
// from its native export list; this package's default table exists so the
// compiler and its tests can resolve real Gothic/Daedalus extern names
// without one attached.
package builtin

import "strings"

// Table maps the upper-cased spelling of an extern function name to its
// host dispatch address.
type Table struct {
	byName map[string]uint32
	byAddr map[uint32]string
}

// New builds a Table from a caller-supplied name -> address map, the shape
// a host embedding this compiler is expected to provide.
func New(m map[string]uint32) *Table {
	t := &Table{byName: make(map[string]uint32, len(m)), byAddr: make(map[uint32]string, len(m))}
	for name, addr := range m {
		key := strings.ToUpper(name)
		t.byName[key] = addr
		t.byAddr[addr] = key
	}
	return t
}

// Address looks up name (case-insensitive), reporting whether it is known.
func (t *Table) Address(name string) (uint32, bool) {
	addr, ok := t.byName[strings.ToUpper(name)]
	return addr, ok
}

// Name reverse-looks-up a dispatch address, returning the extern name
// registered for it.
func (t *Table) Name(addr uint32) (string, bool) {
	name, ok := t.byAddr[addr]
	return name, ok
}

// Default seeds a handful of well-known Gothic/Daedalus externs so a host-
// less build or test can still resolve real names. Addresses are stable,
// arbitrary small integers - this package does not attempt to reproduce
// any particular engine build's real dispatch table.
func Default() *Table {
	return New(map[string]uint32{
		"MDL_SETVISUAL":        1,
		"MDL_SETVISUALBODY":    2,
		"MDL_APPLYOVERLAYMDS":  3,
		"AI_OUTPUT":            10,
		"AI_STOPPROCESSINFOS":  11,
		"AI_PLAYANI":           12,
		"NPC_ISPLAYER":         20,
		"NPC_SETTALENTSKILL":   21,
		"NPC_GETDISTTOWP":      22,
		"WLD_INSERTOBJECT":     30,
		"WLD_INSERTNPC":        31,
		"WLD_ISTIME":           32,
		"HLP_RANDOM":           40,
		"HLP_GETINSTANCEID":    41,
		"PRINTSCREEN":          50,
		"PRINTDEBUG":           51,
		"LOG_CREATETOPIC":      60,
		"LOG_SETTOPICSTATUS":   61,
		"LOG_ADDENTRY":         62,
		"CREATEINVITEM":        70,
		"CREATEINVITEMS":       71,
	})
}
