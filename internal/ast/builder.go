// Package ast is the arena-backed annotated syntax tree. Nodes are
// append-only: the parser builds them, later passes only mutate the side
// annotations. Cross-unit references are IDs into a shared Builder, never
// owning pointers.
package ast

import (
	"solar/internal/source"
)

type Hints struct{ Units, Items, Stmts, Exprs uint }

// Builder owns every arena of one compile invocation.
type Builder struct {
	Units     *Units
	Items     *Items
	Stmts     *Stmts
	Exprs     *Exprs
	TypeNames *TypeNames
	Params    *Params
}

func NewBuilder(hints Hints) *Builder {
	if hints.Units == 0 {
		hints.Units = 1 << 3
	}
	if hints.Items == 0 {
		hints.Items = 1 << 7
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Builder{
		Units:     NewUnits(hints.Units),
		Items:     NewItems(hints.Items),
		Stmts:     NewStmts(hints.Stmts),
		Exprs:     NewExprs(hints.Exprs),
		TypeNames: NewTypeNames(hints.Exprs / 2),
		Params:    NewParams(hints.Items),
	}
}

func (b *Builder) NewUnit(file source.FileID, path source.StringID, sp source.Span) UnitID {
	return b.Units.New(file, path, sp)
}

func (b *Builder) PushItem(unit UnitID, item ItemID) {
	u := b.Units.Get(unit)
	u.Items = append(u.Items, item)
}

// ItemName returns the declared name of an item, or NoStringID for items
// without one (pragma, import, using-for).
func (b *Builder) ItemName(id ItemID) source.StringID {
	it := b.Items.Get(id)
	if it == nil {
		return source.NoStringID
	}
	switch it.Kind {
	case ItemContract:
		p, _ := b.Items.Contract(id)
		return p.Name
	case ItemFunction:
		p, _ := b.Items.Function(id)
		return p.Name
	case ItemModifier:
		p, _ := b.Items.Modifier(id)
		return p.Name
	case ItemEvent:
		p, _ := b.Items.Event(id)
		return p.Name
	case ItemStruct:
		p, _ := b.Items.Struct(id)
		return p.Name
	case ItemEnum:
		p, _ := b.Items.Enum(id)
		return p.Name
	case ItemVariable:
		p, _ := b.Items.Variable(id)
		return p.Name
	default:
		return source.NoStringID
	}
}

// ItemNameSpan returns the span of the declared name, falling back to the
// whole item for unnamed kinds.
func (b *Builder) ItemNameSpan(id ItemID) source.Span {
	it := b.Items.Get(id)
	if it == nil {
		return source.Span{}
	}
	switch it.Kind {
	case ItemContract:
		p, _ := b.Items.Contract(id)
		return p.NameSpan
	case ItemFunction:
		p, _ := b.Items.Function(id)
		return p.NameSpan
	case ItemModifier:
		p, _ := b.Items.Modifier(id)
		return p.NameSpan
	case ItemEvent:
		p, _ := b.Items.Event(id)
		return p.NameSpan
	case ItemStruct:
		p, _ := b.Items.Struct(id)
		return p.NameSpan
	case ItemEnum:
		p, _ := b.Items.Enum(id)
		return p.NameSpan
	case ItemVariable:
		p, _ := b.Items.Variable(id)
		return p.NameSpan
	default:
		return it.Span
	}
}
