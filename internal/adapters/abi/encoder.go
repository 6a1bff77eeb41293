package abi

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
)

// EncodeConstructorArgs coerces args to the constructor parameters of abiJSON
// and returns their ABI encoding, ready to append to the creation code.
func EncodeConstructorArgs(abiJSON []byte, args []any) ([]byte, error) {
	if len(bytes.TrimSpace(abiJSON)) == 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("artifact has no ABI but %d constructor arguments were given", len(args))
		}
		return nil, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	coerced, err := CoerceArguments(parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}

	packed, err := parsed.Pack("", coerced...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	return packed, nil
}

// CoerceArguments converts loosely typed values to the Go types go-ethereum packs for each input
func CoerceArguments(inputs abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("constructor(%s) expects %d arguments, got %d",
			Signature(inputs), len(inputs), len(args))
	}

	out := make([]any, len(args))
	for i, input := range inputs {
		v, err := Coerce(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %d (%s %s): %w", i, input.Type.String(), name, err)
		}
		out[i] = v
	}
	return out, nil
}

// Signature renders inputs as a comma separated type list
func Signature(inputs abi.Arguments) string {
	return strings.Join(lo.Map(inputs, func(a abi.Argument, _ int) string { return a.Type.String() }), ",")
}

// Coerce converts a single value to the Go representation of t
func Coerce(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		return s, nil
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		return toFixedBytes(t, v)
	case abi.IntTy, abi.UintTy:
		return toInteger(t, v)
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, v)
	}
	return nil, fmt.Errorf("parameter type %s is not supported", t.String())
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *x, nil
	case string:
		if !common.IsHexAddress(x) {
			return common.Address{}, fmt.Errorf("invalid address %q", x)
		}
		return common.HexToAddress(x), nil
	}
	return common.Address{}, fmt.Errorf("expected an address, got %T", v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("invalid bool %q", x)
		}
		return b, nil
	}
	return false, fmt.Errorf("expected a bool, got %T", v)
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		b, err := hexutil.Decode(x)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q: %w", x, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("expected hex bytes, got %T", v)
}

func toFixedBytes(t abi.Type, v any) (any, error) {
	b, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	if len(b) > t.Size {
		return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
	}

	// Shorter values are right-padded like Solidity bytesN literals
	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}

func toInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}

	if err := checkRange(t, n); err != nil {
		return nil, err
	}

	// go-ethereum packs native widths for 8/16/32/64 bits and *big.Int otherwise
	goType := t.GetType()
	if goType == reflect.TypeOf((*big.Int)(nil)) {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case string:
		s := strings.TrimSpace(x)
		n := new(big.Int)
		var ok bool
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			_, ok = n.SetString(s[2:], 16)
		} else {
			_, ok = n.SetString(s, 10)
		}
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("expected an integer, got %T", v)
}

func checkRange(t abi.Type, n *big.Int) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return fmt.Errorf("%s is negative", n)
		}
		if n.BitLen() > t.Size {
			return fmt.Errorf("%s overflows uint%d", n, t.Size)
		}
		return nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	minimum := new(big.Int).Neg(limit)
	maximum := new(big.Int).Sub(limit, big.NewInt(1))
	if n.Cmp(minimum) < 0 || n.Cmp(maximum) > 0 {
		return fmt.Errorf("%s overflows int%d", n, t.Size)
	}
	return nil
}

func toList(t abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	// []byte literals are not lists of uint8 here
	if _, isBytes := v.([]byte); isBytes {
		return nil, fmt.Errorf("expected a list, got bytes")
	}

	length := rv.Len()
	var out reflect.Value
	if t.T == abi.ArrayTy {
		if length != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, length)
		}
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), length, length)
	}

	for i := 0; i < length; i++ {
		elem, err := Coerce(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}
