package provider

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// okInitCode deploys a contract whose runtime code is the single byte 0x00.
	okInitCode = hexutil.MustDecode("0x6001600c60003960016000f300")
	// revertInitCode reverts in the constructor with empty data.
	revertInitCode = hexutil.MustDecode("0x60006000fd")
)

// hardhatKey is the well known first account of the Hardhat and Anvil dev chains.
const (
	hardhatKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hardhatAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)
