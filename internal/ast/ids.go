package ast

type (
	FileID  uint32
	ItemID  uint32
	FnID    uint32
	StmtID  uint32
	ExprID  uint32
	BlockID uint32
	TypeID  uint32
)

const (
	NoFileID  FileID  = 0
	NoItemID  ItemID  = 0
	NoFnID    FnID    = 0
	NoStmtID  StmtID  = 0
	NoExprID  ExprID  = 0
	NoBlockID BlockID = 0
	NoTypeID  TypeID  = 0
)

func (id FileID) IsValid() bool  { return id != NoFileID }
func (id ItemID) IsValid() bool  { return id != NoItemID }
func (id FnID) IsValid() bool    { return id != NoFnID }
func (id StmtID) IsValid() bool  { return id != NoStmtID }
func (id ExprID) IsValid() bool  { return id != NoExprID }
func (id BlockID) IsValid() bool { return id != NoBlockID }
func (id TypeID) IsValid() bool  { return id != NoTypeID }
