package visualize

import (
	"os"
	"testing"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChain() []*model.Block {
	return []*model.Block{
		{Index: 0, PrevHash: "0", Hash: "00aaaaaaaaaaaa11"},
		{Index: 1, PrevHash: "00aaaaaaaaaaaa11", Hash: "00bbbbbbbbbbbb22",
			Txs: []model.Record{{"author": "a", "content": "hi", "timestamp": 1.5, "likes": 2}}},
		{Index: 2, PrevHash: "00bbbbbbbbbbbb22", Hash: "00cccccccccccc33"},
	}
}

func TestShortenString(t *testing.T) {
	assert.Equal(t, "abc...ghi", shortenString("abcdefghi"))
	assert.Equal(t, "abcd", shortenString("abcd"))
}

func TestConstructData(t *testing.T) {
	root := constructData(testChain(), 1)
	require.NotNil(t, root)
	assert.Equal(t, int64(1), root.index)
	assert.Equal(t, "00b...b22", root.hash)
	require.Len(t, root.records, 1)
	assert.Equal(t, record{author: "a", content: "hi", extra: "likes=2 timestamp=1.5"}, root.records[0])
	require.NotNil(t, root.next)
	assert.Equal(t, int64(2), root.next.index)
	assert.Nil(t, root.next.next)

	// Depth beyond the chain starts at genesis.
	assert.Equal(t, int64(0), constructData(testChain(), 10).index)
	assert.Nil(t, constructData(nil, 3))
}

func TestRenderWritesGraph(t *testing.T) {
	out, err := Render(testChain(), 2, "visualize-test")
	require.NoError(t, err)
	defer os.Remove(out)
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
