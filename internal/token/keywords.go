package token

var keywords = map[string]Kind{
	"pragma":      KwPragma,
	"import":      KwImport,
	"contract":    KwContract,
	"interface":   KwInterface,
	"library":     KwLibrary,
	"abstract":    KwAbstract,
	"is":          KwIs,
	"function":    KwFunction,
	"modifier":    KwModifier,
	"constructor": KwConstructor,
	"fallback":    KwFallback,
	"receive":     KwReceive,
	"event":       KwEvent,
	"struct":      KwStruct,
	"enum":        KwEnum,
	"mapping":     KwMapping,
	"returns":     KwReturns,
	"return":      KwReturn,
	"if":          KwIf,
	"else":        KwElse,
	"while":       KwWhile,
	"do":          KwDo,
	"for":         KwFor,
	"break":       KwBreak,
	"continue":    KwContinue,
	"new":         KwNew,
	"delete":      KwDelete,
	"emit":        KwEmit,
	"using":       KwUsing,
	"public":      KwPublic,
	"private":     KwPrivate,
	"internal":    KwInternal,
	"external":    KwExternal,
	"pure":        KwPure,
	"view":        KwView,
	"payable":     KwPayable,
	"constant":    KwConstant,
	"virtual":     KwVirtual,
	"override":    KwOverride,
	"memory":      KwMemory,
	"storage":     KwStorage,
	"calldata":    KwCalldata,
	"indexed":     KwIndexed,
	"anonymous":   KwAnonymous,
	"assembly":    KwAssembly,
	"address":     KwAddress,
	"bool":        KwBool,
	"string":      KwString,
	"bytes":       KwBytes,
	"true":        KwTrue,
	"false":       KwFalse,
	"type":        KwType,
}

// LookupKeyword returns the keyword kind for a lexeme. Keywords are
// case-sensitive; sized type names (uint8..uint256, bytes1..bytes32, uint,
// int) stay Ident and are recognized by the semantic layer.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
