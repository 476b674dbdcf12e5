package deployer

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrArgumentEncoding is returned when a constructor argument cannot be converted to its ABI
// type.
var ErrArgumentEncoding = errors.New("constructor argument cannot be encoded")

// packConstructor converts args to the constructor input types of contract and ABI encodes
// them. The returned calldata is never nil.
func packConstructor(contract abi.ABI, args []any) ([]byte, error) {
	inputs := contract.Constructor.Inputs
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: constructor expects %d arguments, got %d",
			ErrArgumentEncoding, len(inputs), len(args))
	}

	values := make([]any, len(args))
	for i, arg := range args {
		v, err := coerce(inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d (%s %s): %w",
				ErrArgumentEncoding, i, inputs[i].Type.String(), inputs[i].Name, err)
		}
		values[i] = v
	}

	packed, err := inputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArgumentEncoding, err)
	}
	if packed == nil {
		packed = []byte{}
	}

	return packed, nil
}

// coerce converts v to the Go type go-ethereum expects for t. Types it does not know about
// are passed through for abi.Arguments.Pack to check.
func coerce(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		return coerceInteger(t, v)
	case abi.AddressTy:
		return coerceAddress(v)
	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case abi.BytesTy:
		return coerceBytes(v)
	case abi.FixedBytesTy:
		b, err := coerceBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		out := reflect.New(t.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))

		return out.Interface(), nil
	default:
		return v, nil
	}

	return nil, fmt.Errorf("unsupported value %T", v)
}

func coerceInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}

	var lo, hi *big.Int
	if t.T == abi.UintTy {
		lo = big.NewInt(0)
		hi = new(big.Int).Lsh(big.NewInt(1), uint(t.Size)) //nolint:gosec // abi sizes are at most 256
	} else {
		hi = new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)) //nolint:gosec // abi sizes are at most 256
		lo = new(big.Int).Neg(hi)
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) >= 0 {
		return nil, fmt.Errorf("%s out of range for %s", n, t.String())
	}

	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Ptr:
		return n, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	default:
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
	}
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		f := new(big.Float).SetFloat64(n)
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", n)
		}
		i, _ := f.Int(nil)

		return i, nil
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil *big.Int")
		}

		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case string:
		s := strings.TrimSpace(n)
		i, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", n)
		}

		return i, nil
	}

	return nil, fmt.Errorf("unsupported value %T", v)
}

func coerceAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a == nil {
			return common.Address{}, errors.New("nil address")
		}

		return *a, nil
	case string:
		// Checksums are not enforced; mixed case input is accepted as is.
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("%q is not a hex address", a)
		}

		return common.HexToAddress(a), nil
	}

	return common.Address{}, fmt.Errorf("unsupported value %T", v)
}

func coerceBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case hexutil.Bytes:
		return b, nil
	case string:
		if !strings.HasPrefix(b, "0x") {
			b = "0x" + b
		}

		return hexutil.Decode(b)
	}

	return nil, fmt.Errorf("unsupported value %T", v)
}
