package ast

type (
	// главные сущности
	UnitID     uint32
	ItemID     uint32
	StmtID     uint32
	ExprID     uint32
	TypeNameID uint32
	// подсущности
	PayloadID uint32
	ParamID   uint32
)

const (
	NoUnitID     UnitID     = 0
	NoItemID     ItemID     = 0
	NoStmtID     StmtID     = 0
	NoExprID     ExprID     = 0
	NoTypeNameID TypeNameID = 0
	NoPayloadID  PayloadID  = 0
	NoParamID    ParamID    = 0
)

func (id UnitID) IsValid() bool     { return id != NoUnitID }
func (id ItemID) IsValid() bool     { return id != NoItemID }
func (id StmtID) IsValid() bool     { return id != NoStmtID }
func (id ExprID) IsValid() bool     { return id != NoExprID }
func (id TypeNameID) IsValid() bool { return id != NoTypeNameID }
func (id PayloadID) IsValid() bool  { return id != NoPayloadID }
func (id ParamID) IsValid() bool    { return id != NoParamID }
