package ast

import "solar/internal/source"

// SourceUnit is the root of one parsed file. Items are stored in
// declaration order; the order is observable through the ABI and metadata.
type SourceUnit struct {
	Span  source.Span
	File  source.FileID
	Path  source.StringID
	Items []ItemID
}

type Units struct {
	Arena *Arena[SourceUnit]
}

func NewUnits(capHint uint) *Units {
	return &Units{Arena: NewArena[SourceUnit](capHint)}
}

func (u *Units) New(file source.FileID, path source.StringID, sp source.Span) UnitID {
	return UnitID(u.Arena.Allocate(SourceUnit{Span: sp, File: file, Path: path}))
}

func (u *Units) Get(id UnitID) *SourceUnit {
	return u.Arena.Get(uint32(id))
}
