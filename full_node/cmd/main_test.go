package main

import (
	"flag"
	"testing"

	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainTable(t *testing.T) {
	chain := []*model.Block{
		{Index: 0, PrevHash: "0", Hash: "00aa"},
		{Index: 1, PrevHash: "00aa", Hash: "00bb", Nonce: 17, Txs: []model.Record{{"author": "a", "content": "hi"}}},
	}
	table, err := chainTable(chain, 0)
	require.NoError(t, err)
	assert.Contains(t, table, "00bb")
	assert.Contains(t, table, "17")

	table, err = chainTable(chain, 5)
	require.NoError(t, err)
	assert.Contains(t, table, "Index")
	assert.Contains(t, table, "00aa")
}

func TestBootstrapPeers(t *testing.T) {
	*peers = "localhost:10001, ,localhost:10002"
	defer func() { *peers = "" }()
	c := config.Default()
	c.BOOTSTRAP_PEERS = []string{"10.0.0.1:10000"}
	assert.Equal(t, []string{"10.0.0.1:10000", "localhost:10001", "localhost:10002"}, bootstrapPeers(c))
}

func TestConsoleAndVerbosityFlagsAreSeparate(t *testing.T) {
	debug := flag.Lookup("debug_mode")
	require.NotNil(t, debug)
	v := flag.Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "false", debug.DefValue)
	assert.Equal(t, "false", v.DefValue)

	require.NoError(t, flag.Set("verbose", "true"))
	defer flag.Set("verbose", "false")
	assert.True(t, *verbose)
	assert.False(t, *debugMode)
}
