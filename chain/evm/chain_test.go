package evm

import (
	"testing"

	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Metadata(t *testing.T) {
	t.Parallel()

	c := Chain{Selector: chainsel.GETH_TESTNET.Selector, ChainID: chainsel.GETH_TESTNET.EvmChainID}

	assert.Equal(t, chainsel.GETH_TESTNET.Selector, c.ChainSelector())
	assert.Equal(t, chainsel.GETH_TESTNET.Name, c.Name())
	assert.Equal(t, chainsel.FamilyEVM, c.Family())
	assert.Contains(t, c.String(), c.Name())

	unknown := Chain{Selector: 1, ChainID: 999999999}
	assert.Equal(t, "evm-999999999", unknown.Name())
}

func TestSelectorFromChainID(t *testing.T) {
	t.Parallel()

	sel, name, err := SelectorFromChainID(chainsel.GETH_TESTNET.EvmChainID)
	require.NoError(t, err)
	assert.Equal(t, chainsel.GETH_TESTNET.Selector, sel)
	assert.Equal(t, chainsel.GETH_TESTNET.Name, name)

	_, _, err = SelectorFromChainID(987654321987)
	require.Error(t, err)
}
