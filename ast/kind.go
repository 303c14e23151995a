package ast

// Kind tags every node with its concrete grammar production, mirroring the
// teacher's ASTKind tagging idiom (ast/kind.go) but carrying the
// Python-surface node set from spec.md §6 instead of Zend's.
type Kind uint8

const (
	KindModule Kind = iota

	// statements
	KindFunctionDef
	KindClassDef
	KindAssign
	KindAugAssign
	KindAnnAssign
	KindIf
	KindWhile
	KindFor
	KindWith
	KindTry
	KindRaise
	KindReturn
	KindBreak
	KindContinue
	KindPass
	KindImport
	KindImportFrom
	KindGlobal
	KindNonlocal
	KindExprStmt
	KindDelete

	// expressions
	KindName
	KindConstant
	KindBinOp
	KindUnaryOp
	KindBoolOp
	KindCompare
	KindCall
	KindAttribute
	KindSubscript
	KindList
	KindTuple
	KindDict
	KindSet
	KindLambda
	KindIfExp
	KindStarred
	KindUnpackTarget
	KindFString
	KindYield
	KindYieldFrom
	KindAwait
	KindSlice

	// supporting fragments
	KindArg
	KindParam
	KindKeyword
	KindComprehension
	KindListComp
	KindSetComp
	KindDictComp
	KindGeneratorExp
	KindExceptHandler
	KindWithItem
	KindDecorator
	KindAlias
)

var kindNames = map[Kind]string{
	KindModule:         "Module",
	KindFunctionDef:    "FunctionDef",
	KindClassDef:       "ClassDef",
	KindAssign:         "Assign",
	KindAugAssign:      "AugAssign",
	KindAnnAssign:      "AnnAssign",
	KindIf:             "If",
	KindWhile:          "While",
	KindFor:            "For",
	KindWith:           "With",
	KindTry:            "Try",
	KindRaise:          "Raise",
	KindReturn:         "Return",
	KindBreak:          "Break",
	KindContinue:       "Continue",
	KindPass:           "Pass",
	KindImport:         "Import",
	KindImportFrom:     "ImportFrom",
	KindGlobal:         "Global",
	KindNonlocal:       "Nonlocal",
	KindExprStmt:       "ExprStmt",
	KindDelete:         "Delete",
	KindName:           "Name",
	KindConstant:       "Constant",
	KindBinOp:          "BinOp",
	KindUnaryOp:        "UnaryOp",
	KindBoolOp:         "BoolOp",
	KindCompare:        "Compare",
	KindCall:           "Call",
	KindAttribute:      "Attribute",
	KindSubscript:      "Subscript",
	KindList:           "List",
	KindTuple:          "Tuple",
	KindDict:           "Dict",
	KindSet:            "Set",
	KindLambda:         "Lambda",
	KindIfExp:          "IfExp",
	KindStarred:        "Starred",
	KindUnpackTarget:   "UnpackTarget",
	KindFString:        "FString",
	KindYield:          "Yield",
	KindYieldFrom:      "YieldFrom",
	KindAwait:          "Await",
	KindSlice:          "Slice",
	KindArg:            "Arg",
	KindParam:          "Param",
	KindKeyword:        "Keyword",
	KindComprehension:  "Comprehension",
	KindListComp:       "ListComp",
	KindSetComp:        "SetComp",
	KindDictComp:       "DictComp",
	KindGeneratorExp:   "GeneratorExp",
	KindExceptHandler:  "ExceptHandler",
	KindWithItem:       "WithItem",
	KindDecorator:      "Decorator",
	KindAlias:          "Alias",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// BinOpKind enumerates the `+ - * / // % ** << >> & | ^` family (spec.md
// §4.1). Kept distinct from opcodes.Opcode: the compiler lowers one of
// these plus operand static types into a specialized or generic opcode.
type BinOpKind uint8

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpBitAnd
	OpBitOr
	OpBitXor
	OpMatMul
)

type UnaryOpKind uint8

const (
	OpNeg UnaryOpKind = iota
	OpPos
	OpNot
	OpInvert
)

type BoolOpKind uint8

const (
	OpAnd BoolOpKind = iota
	OpOr
)

// CmpOp enumerates chained-comparison operators (spec.md §8 chained compare).
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNotEq
	CmpLt
	CmpLtE
	CmpGt
	CmpGtE
	CmpIs
	CmpIsNot
	CmpIn
	CmpNotIn
)
