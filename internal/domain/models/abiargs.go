package models

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABIType parses the declared Solidity type
func (a ConstructorArg) ABIType() (abi.Type, error) {
	return abi.NewType(strings.TrimSpace(a.Type), "", nil)
}

// GoValue converts the textual value into the Go type go-ethereum packs for the ABI type.
// Only elementary types are supported.
func (a ConstructorArg) GoValue() (interface{}, error) {
	typ, err := a.ABIType()
	if err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", a.Type, err)
	}
	return convertValue(typ, strings.TrimSpace(a.Value))
}

// PackConstructorArgs ABI-encodes args positionally
func PackConstructorArgs(args []ConstructorArg) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}

	arguments := make(abi.Arguments, 0, len(args))
	values := make([]interface{}, 0, len(args))
	for i, arg := range args {
		typ, err := arg.ABIType()
		if err != nil {
			return nil, fmt.Errorf("arg %d: invalid type %q: %w", i, arg.Type, err)
		}
		value, err := convertValue(typ, strings.TrimSpace(arg.Value))
		if err != nil {
			return nil, fmt.Errorf("arg %d (%s): %w", i, arg.Type, err)
		}
		arguments = append(arguments, abi.Argument{Type: typ})
		values = append(values, value)
	}

	return arguments.Pack(values...)
}

func convertValue(typ abi.Type, raw string) (interface{}, error) {
	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil

	case abi.BoolTy:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", raw)
		}
		return b, nil

	case abi.StringTy:
		return raw, nil

	case abi.BytesTy:
		b, err := decodeHex(raw)
		if err != nil {
			return nil, err
		}
		return b, nil

	case abi.FixedBytesTy:
		b, err := decodeHex(raw)
		if err != nil {
			return nil, err
		}
		if len(b) > typ.Size {
			return nil, fmt.Errorf("value %q exceeds bytes%d", raw, typ.Size)
		}
		out := reflect.New(typ.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out.Interface(), nil

	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return fitInteger(typ, n)

	default:
		return nil, fmt.Errorf("unsupported constructor argument type %s", typ.String())
	}
}

// fitInteger returns n as the exact Go type go-ethereum expects for the integer width
func fitInteger(typ abi.Type, n *big.Int) (interface{}, error) {
	if typ.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", n, typ.String())
	}
	if typ.T == abi.UintTy && n.BitLen() > typ.Size {
		return nil, fmt.Errorf("value %s overflows %s", n, typ.String())
	}
	if typ.T == abi.IntTy {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		minInt := new(big.Int).Neg(limit)
		maxInt := new(big.Int).Sub(limit, big.NewInt(1))
		if n.Cmp(minInt) < 0 || n.Cmp(maxInt) > 0 {
			return nil, fmt.Errorf("value %s overflows %s", n, typ.String())
		}
	}

	goType := typ.GetType()
	if goType.Kind() == reflect.Ptr {
		return n, nil
	}

	out := reflect.New(goType).Elem()
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out.SetUint(n.Uint64())
	default:
		out.SetInt(n.Int64())
	}
	return out.Interface(), nil
}

func decodeHex(raw string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex value %q", raw)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value %q", raw)
	}
	return b, nil
}
