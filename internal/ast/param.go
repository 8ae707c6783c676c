package ast

import "solar/internal/source"

// Param is one function/event parameter, return value, or struct field.
type Param struct {
	Name     source.StringID // NoStringID for unnamed
	TypeName TypeNameID
	Location DataLocation
	Indexed  bool // event parameters only
	Span     source.Span
}

type Params struct {
	Arena *Arena[Param]
}

func NewParams(capHint uint) *Params {
	return &Params{Arena: NewArena[Param](capHint)}
}

func (p *Params) New(param Param) ParamID {
	return ParamID(p.Arena.Allocate(param))
}

func (p *Params) Get(id ParamID) *Param {
	return p.Arena.Get(uint32(id))
}
