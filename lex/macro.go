package lex

import (
	"sort"

	"github.com/samber/lo"

	"github.com/nboxvm/nbox/vmerr"
)

// Kind of macro definition.
type MacroKind int

// Macro kinds.
const (
	Single MacroKind = iota
	Multi
)

// Macro is either a single (flat token list substituted at each use
// site) or multi (parameter list plus a body of token lines) macro
// definition.
type Macro struct {
	Name      string
	Kind      MacroKind
	Pos       vmerr.Position
	Body      Line   // Single only
	Params    []string // Multi only
	BodyLines []Line // Multi only
}

// MacroTable maps macro names to their latest definition. Later
// definitions under the same name override earlier ones.
type MacroTable struct {
	macros map[string]*Macro
}

// NewMacroTable creates an empty MacroTable.
func NewMacroTable() *MacroTable {
	return &MacroTable{macros: make(map[string]*Macro)}
}

// Define records (or overrides) a macro definition.
func (t *MacroTable) Define(m *Macro) {
	t.macros[m.Name] = m
}

// Lookup returns the macro registered under name, if any.
func (t *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// Dump returns all defined macros sorted by name, for the driver's
// --dump-macros diagnostic flag.
func (t *MacroTable) Dump() []*Macro {
	names := lo.Keys(t.macros)
	sort.Strings(names)
	return lo.Map(names, func(n string, _ int) *Macro { return t.macros[n] })
}
