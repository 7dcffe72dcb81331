package utils

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBlock() *model.Block {
	return &model.Block{
		Index:     1,
		PrevHash:  "00ab",
		Timestamp: 1618033988.75,
		Txs: []model.Record{
			{"author": "a", "content": "hi"},
		},
		Nonce: 3,
	}
}

// Builds a sealed chain of genesis plus n mined blocks.
func createTestChain(t *testing.T, n int, difficulty int) []*model.Block {
	t.Helper()
	genesis, err := CreateGenesisBlock(difficulty)
	require.NoError(t, err)
	blocks := []*model.Block{genesis}
	for i := 0; i < n; i++ {
		tail := blocks[len(blocks)-1]
		b := CreateNewBlock([]model.Record{{"author": "a", "content": string(rune('a' + i))}}, tail, float64(i+1))
		digest, nonce, err := Mine(context.Background(), b, difficulty)
		require.NoError(t, err)
		b.Nonce = nonce
		b.Hash = digest
		blocks = append(blocks, b)
	}
	return blocks
}

func TestGetBlockBytesExcludesHash(t *testing.T) {
	testBlock := createTestBlock()
	before, err := GetBlockBytes(testBlock)
	require.NoError(t, err)

	testBlock.Hash = "ffff"
	after, err := GetBlockBytes(testBlock)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NotContains(t, string(after), "hash\":\"ffff")
}

func TestComputeHashIsDeterministic(t *testing.T) {
	testBlock := createTestBlock()
	h1, err := ComputeHash(testBlock)
	require.NoError(t, err)
	h2, err := ComputeHash(testBlock)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestComputeHashIgnoresFieldOrder(t *testing.T) {
	// The same fields decoded from two wire layouts must hash identically.
	a := `{"index":1,"transactions":[{"author":"a","content":"hi"}],"timestamp":5,"previous_hash":"00ab","nonce":7}`
	b := `{"nonce":7,"previous_hash":"00ab","timestamp":5,"transactions":[{"content":"hi","author":"a"}],"index":1}`
	var ba, bb model.Block
	require.NoError(t, json.Unmarshal([]byte(a), &ba))
	require.NoError(t, json.Unmarshal([]byte(b), &bb))

	ha, err := ComputeHash(&ba)
	require.NoError(t, err)
	hb, err := ComputeHash(&bb)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestComputeHashChangesWithNonce(t *testing.T) {
	testBlock := createTestBlock()
	h1, _ := ComputeHash(testBlock)
	testBlock.Nonce++
	h2, _ := ComputeHash(testBlock)
	assert.NotEqual(t, h1, h2)
}

func TestMine(t *testing.T) {
	testDifficulty := 2
	testBlock := createTestBlock()

	digest, nonce, err := Mine(context.Background(), testBlock, testDifficulty)
	require.NoError(t, err)
	assert.Equal(t, "00", digest[:2])
	// The candidate is left untouched by the search.
	assert.Equal(t, int64(3), testBlock.Nonce)
	assert.Empty(t, testBlock.Hash)

	testBlock.Nonce = nonce
	matched, recomputed := MatchDifficulty(testBlock, testDifficulty)
	assert.True(t, matched)
	assert.Equal(t, digest, recomputed)
}

func TestMineFindsFirstNonce(t *testing.T) {
	testBlock := createTestBlock()
	_, nonce, err := Mine(context.Background(), testBlock, 1)
	require.NoError(t, err)
	for i := int64(0); i < nonce; i++ {
		testBlock.Nonce = i
		matched, _ := MatchDifficulty(testBlock, 1)
		assert.False(t, matched, "nonce %d should not match", i)
	}
}

func TestMineZeroDifficulty(t *testing.T) {
	digest, nonce, err := Mine(context.Background(), createTestBlock(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), nonce)
	assert.NotEmpty(t, digest)
}

func TestMineInterruption(t *testing.T) {
	// Make a difficulty that's impossible to solve.
	testDifficulty := 64
	testBlock := createTestBlock()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	digest, _, err := Mine(ctx, testBlock, testDifficulty)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, digest)
}

func TestMineRejectsNegativeDifficulty(t *testing.T) {
	_, _, err := Mine(context.Background(), createTestBlock(), -1)
	assert.Error(t, err)
}

func TestHasLeadingZeros(t *testing.T) {
	assert.True(t, HasLeadingZeros("00ab", 2))
	assert.True(t, HasLeadingZeros("00ab", 0))
	assert.False(t, HasLeadingZeros("00ab", 3))
	assert.False(t, HasLeadingZeros("00", 3))
	assert.False(t, HasLeadingZeros("00", -1))
}

func TestIsValidProof(t *testing.T) {
	testBlock := createTestBlock()
	digest, nonce, err := Mine(context.Background(), testBlock, 2)
	require.NoError(t, err)
	testBlock.Nonce = nonce

	assert.True(t, IsValidProof(testBlock, digest, 2))
	// Right digest but not enough zeros for a harder difficulty.
	if digest[2] != '0' {
		assert.False(t, IsValidProof(testBlock, digest, 3))
	}
	// Has the zeros but is not the digest of the block.
	assert.False(t, IsValidProof(testBlock, "00"+digest[2:63]+"x", 2))
	testBlock.Txs[0]["content"] = "tampered"
	assert.False(t, IsValidProof(testBlock, digest, 2))
}

func TestCreateGenesisBlockIsStable(t *testing.T) {
	g1, err := CreateGenesisBlock(2)
	require.NoError(t, err)
	g2, err := CreateGenesisBlock(2)
	require.NoError(t, err)
	assert.Equal(t, g1.Hash, g2.Hash)
	assert.Equal(t, "00", g1.Hash[:2])
	assert.Equal(t, model.GenesisPrevHash, g1.PrevHash)
}

func TestCheckChainValidity(t *testing.T) {
	for _, n := range []int{0, 1, 4} {
		blocks := createTestChain(t, n, 2)
		assert.True(t, CheckChainValidity(blocks, 2), "chain of %d mined blocks", n)
	}
}

func TestCheckChainValidityDetectsTamperedRecord(t *testing.T) {
	blocks := createTestChain(t, 3, 2)
	// Any non-tip block.
	for i := 1; i < len(blocks)-1; i++ {
		chain := createTestChain(t, 3, 2)
		chain[i].Txs[0]["content"] = "tampered"
		assert.False(t, CheckChainValidity(chain, 2), "tampered block %d", i)
	}
	assert.True(t, CheckChainValidity(blocks, 2))
}

func TestCheckChainValidityDetectsBrokenLink(t *testing.T) {
	blocks := createTestChain(t, 2, 2)
	// Drop block 1, block 2 no longer links to genesis.
	broken := []*model.Block{blocks[0], blocks[2]}
	assert.False(t, CheckChainValidity(broken, 2))
	assert.False(t, CheckChainValidity(nil, 2))
}

func TestCheckChainValidityUsesCurrentDifficulty(t *testing.T) {
	blocks := createTestChain(t, 2, 1)
	allTwo := true
	for _, b := range blocks {
		if b.Hash[1] != '0' {
			allTwo = false
		}
	}
	assert.Equal(t, allTwo, CheckChainValidity(blocks, 2))
}

func TestCheckChainValidityDoesNotMutate(t *testing.T) {
	blocks := createTestChain(t, 2, 2)
	hashes := []string{blocks[0].Hash, blocks[1].Hash, blocks[2].Hash}
	CheckChainValidity(blocks, 2)
	for i, b := range blocks {
		assert.Equal(t, hashes[i], b.Hash)
	}
}
