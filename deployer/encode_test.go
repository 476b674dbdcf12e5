package deployer

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, name string) abi.Type {
	t.Helper()

	typ, err := abi.NewType(name, "", nil)
	require.NoError(t, err)

	return typ
}

func Test_coerce(t *testing.T) {
	t.Parallel()

	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	tests := []struct {
		name    string
		typ     string
		give    any
		want    any
		wantErr string
	}{
		{name: "uint256 from int64", typ: "uint256", give: int64(1700000000), want: big.NewInt(1700000000)},
		{name: "uint256 from decimal string", typ: "uint256", give: "42", want: big.NewInt(42)},
		{name: "uint256 from hex string", typ: "uint256", give: "0x2a", want: big.NewInt(42)},
		{name: "uint256 from float64", typ: "uint256", give: float64(7), want: big.NewInt(7)},
		{name: "uint256 negative", typ: "uint256", give: int64(-1), wantErr: "out of range"},
		{name: "uint256 fractional", typ: "uint256", give: 1.5, wantErr: "not an integer"},
		{name: "uint8 native", typ: "uint8", give: 255, want: uint8(255)},
		{name: "uint8 overflow", typ: "uint8", give: 256, wantErr: "out of range"},
		{name: "int64 native", typ: "int64", give: -5, want: int64(-5)},
		{name: "int24 big", typ: "int24", give: -5, want: big.NewInt(-5)},
		{name: "address from lower case", typ: "address", give: strings.ToLower(addr.Hex()), want: addr},
		{name: "address from upper case", typ: "address", give: "0x" + strings.ToUpper(addr.Hex()[2:]), want: addr},
		{name: "address value", typ: "address", give: addr, want: addr},
		{name: "address empty", typ: "address", give: "", wantErr: "is not a hex address"},
		{name: "address garbage", typ: "address", give: "0xnope", wantErr: "is not a hex address"},
		{name: "address wrong type", typ: "address", give: 12, wantErr: "unsupported value int"},
		{name: "bool", typ: "bool", give: true, want: true},
		{name: "bool from string", typ: "bool", give: "false", want: false},
		{name: "string", typ: "string", give: "hello", want: "hello"},
		{name: "string wrong type", typ: "string", give: 1, wantErr: "unsupported value int"},
		{name: "bytes from hex", typ: "bytes", give: "0x0102", want: []byte{1, 2}},
		{name: "bytes4", typ: "bytes4", give: "0x01020304", want: [4]byte{1, 2, 3, 4}},
		{name: "bytes4 wrong length", typ: "bytes4", give: "0x01", wantErr: "want 4 bytes, got 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := coerce(mustType(t, tt.typ), tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_packConstructor(t *testing.T) {
	t.Parallel()

	contract, err := abi.JSON(strings.NewReader(`[{"type":"constructor","inputs":[` +
		`{"name":"_startTime","type":"uint256"},{"name":"_token","type":"address"}]}]`))
	require.NoError(t, err)

	token := "0x00000000000000000000000000000000000000aa"
	got, err := packConstructor(contract, []any{int64(1700000000), token})
	require.NoError(t, err)
	assert.Equal(t, packStakingArgs(t, 1700000000, token), got)

	_, err = packConstructor(contract, []any{int64(1), ""})
	require.ErrorIs(t, err, ErrArgumentEncoding)
	require.ErrorContains(t, err, "argument 1 (address _token)")

	empty, err := packConstructor(abi.ABI{}, []any{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
