package sema

import (
	"solar/internal/types"
)

// builtinKind tags identifiers with meaning baked into the language.
type builtinKind uint8

const (
	builtinNone builtinKind = iota
	builtinMsg
	builtinBlock
	builtinTx
	builtinABI
	builtinThis
	builtinSuper
	builtinRequire
	builtinAssert
	builtinRevert
	builtinKeccak256
	builtinSha256
	builtinAddmod
	builtinMulmod
	builtinSelfdestruct
	builtinBlockhash
	builtinGasleft
	builtinNow
	builtinType
)

func lookupBuiltin(name string) builtinKind {
	switch name {
	case "msg":
		return builtinMsg
	case "block":
		return builtinBlock
	case "tx":
		return builtinTx
	case "abi":
		return builtinABI
	case "this":
		return builtinThis
	case "super":
		return builtinSuper
	case "require":
		return builtinRequire
	case "assert":
		return builtinAssert
	case "revert":
		return builtinRevert
	case "keccak256":
		return builtinKeccak256
	case "sha256":
		return builtinSha256
	case "addmod":
		return builtinAddmod
	case "mulmod":
		return builtinMulmod
	case "selfdestruct":
		return builtinSelfdestruct
	case "blockhash":
		return builtinBlockhash
	case "gasleft":
		return builtinGasleft
	case "now":
		return builtinNow
	case "type":
		return builtinType
	}
	return builtinNone
}

// magicMember resolves a member of msg/block/tx/abi to its type.
func (info *Info) magicMember(kind types.MagicKind, member string) types.TypeID {
	p := info.Provider
	u256 := p.Integer(256, false)
	switch kind {
	case types.MagicMsg:
		switch member {
		case "sender":
			return p.Address(true)
		case "value":
			return u256
		case "data":
			return p.Bytes(types.LocCalldata)
		case "sig":
			return p.FixedBytes(4)
		}
	case types.MagicBlock:
		switch member {
		case "number", "timestamp", "difficulty", "gaslimit", "chainid", "basefee":
			return u256
		case "coinbase":
			return p.Address(true)
		}
	case types.MagicTx:
		switch member {
		case "origin":
			return p.Address(true)
		case "gasprice":
			return u256
		}
	case types.MagicABI:
		switch member {
		case "encode", "encodePacked", "encodeWithSelector", "encodeWithSignature":
			// variadic builtin returning memory bytes; arguments are
			// checked loosely at the call site
			return p.Function(nil, []types.TypeID{p.Bytes(types.LocMemory)}, types.FnBuiltin, types.MutPure)
		}
	}
	return types.NoTypeID
}

// addressMember resolves members available on address values.
func (info *Info) addressMember(payable bool, member string) types.TypeID {
	p := info.Provider
	u256 := p.Integer(256, false)
	switch member {
	case "balance":
		return u256
	case "code":
		return p.Bytes(types.LocMemory)
	case "transfer":
		if payable {
			return p.Function([]types.TypeID{u256}, nil, types.FnBuiltin, types.MutNonPayable)
		}
	case "send":
		if payable {
			return p.Function([]types.TypeID{u256}, []types.TypeID{p.Bool()}, types.FnBuiltin, types.MutNonPayable)
		}
	case "call", "delegatecall", "staticcall":
		return p.Function(
			[]types.TypeID{p.Bytes(types.LocMemory)},
			[]types.TypeID{p.Bool(), p.Bytes(types.LocMemory)},
			types.FnBuiltin, types.MutPayable)
	}
	return types.NoTypeID
}
