package full_node

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

// Builds a second valid chain of genesis plus n blocks whose records differ from
// createTestChain's.
func createForkChain(t *testing.T, n int, author string) []*model.Block {
	t.Helper()
	blocks := createTestChain(t, 0)
	for i := 0; i < n; i++ {
		txs := []model.Record{{"author": author, "content": string(rune('a' + i))}}
		blocks = append(blocks, mineOnTop(t, blocks[len(blocks)-1], txs, float64(100+i)))
	}
	return blocks
}

func TestConsensusAdoptsLongestValidChain(t *testing.T) {
	chain := createTestChain(t, 6)
	tampered := copyChain(chain)
	tampered[3].Txs = []model.Record{{"author": "eve", "content": "rewritten"}}

	network := fakeNetwork{
		"node-a:5000": newFakePeer(copyChain(chain[:5])),
		"node-b:5000": newFakePeer(tampered),
	}
	sev := createTestServer(t, network)

	replaced, err := sev.Consensus(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 5, sev.fullNode.GetHeight())
	assert.Equal(t, chain[4].Hash, sev.fullNode.GetTail().Hash)
	assert.Equal(t, float64(1), metricValue(t, sev.metrics.ChainReplacements))
	assert.Equal(t, float64(5), metricValue(t, sev.metrics.ChainHeight))
}

func TestConsensusKeepsLocalChainWhenNotShorter(t *testing.T) {
	chain := createTestChain(t, 2)
	sev := createTestServer(t, fakeNetwork{"node-a:5000": newFakePeer(copyChain(chain))})
	_, err := sev.fullNode.ReplaceIfLonger(createForkChain(t, 2, "local"))
	require.NoError(t, err)
	tail := sev.fullNode.GetTail().Hash

	replaced, err := sev.Consensus(context.Background())
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, tail, sev.fullNode.GetTail().Hash)
}

func TestConsensusSkipsFailingPeers(t *testing.T) {
	chain := createTestChain(t, 2)
	down := newFakePeer(nil)
	down.down = true
	lying := newFakePeer(copyChain(createTestChain(t, 4)))
	lying.length = 9

	sev := createTestServer(t, fakeNetwork{
		"node-a:5000": down,
		"node-b:5000": lying,
		"node-c:5000": newFakePeer(copyChain(chain)),
	})

	replaced, err := sev.Consensus(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, chain[2].Hash, sev.fullNode.GetTail().Hash)
	assert.Equal(t, float64(1), metricValue(t, sev.metrics.PeerFailures.WithLabelValues("get_chain")))
}

func TestConsensusBoundsHungPeer(t *testing.T) {
	chain := createTestChain(t, 1)
	hung := newFakePeer(nil)
	hung.hang = true
	network := fakeNetwork{
		"node-a:5000": hung,
		"node-b:5000": newFakePeer(copyChain(chain)),
	}
	c := testConfig()
	c.PEER_TIMEOUT = 50 * time.Millisecond
	sev, err := NewFullNodeServer(c, "localhost:5000", WithDialer(network.Dial))
	require.NoError(t, err)
	for addr := range network {
		_, err := sev.AddPeer(addr)
		require.NoError(t, err)
	}

	start := time.Now()
	replaced, err := sev.Consensus(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestConsensusHungPeerWithoutTimeout(t *testing.T) {
	c := testConfig()
	c.PEER_TIMEOUT = 0
	_, err := NewFullNodeServer(c, "localhost:5000")
	require.Error(t, err)

	// A peer that ignores cancellation cannot hold the pass past the caller's deadline.
	chain := createTestChain(t, 2)
	stuck := newFakePeer(nil)
	stuck.stuck = make(chan struct{})
	defer close(stuck.stuck)
	network := fakeNetwork{
		"node-a:5000": newFakePeer(copyChain(chain)),
		"node-b:5000": stuck,
	}
	c = testConfig()
	c.PEER_TIMEOUT = time.Hour
	sev, err := NewFullNodeServer(c, "localhost:5000", WithDialer(network.Dial))
	require.NoError(t, err)
	for addr := range network {
		_, err := sev.AddPeer(addr)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	replaced, err := sev.Consensus(ctx)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, chain[2].Hash, sev.fullNode.GetTail().Hash)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestConsensusTieBreakIsDeterministic(t *testing.T) {
	first := createForkChain(t, 2, "x")
	second := createForkChain(t, 2, "y")
	want := first
	if second[2].Hash < first[2].Hash {
		want = second
	}

	for i := 0; i < 5; i++ {
		sev := createTestServer(t, fakeNetwork{
			"node-a:5000": newFakePeer(copyChain(first)),
			"node-b:5000": newFakePeer(copyChain(second)),
		})
		replaced, err := sev.Consensus(context.Background())
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.Equal(t, want[2].Hash, sev.fullNode.GetTail().Hash)
	}
}

func TestConsensusWithoutPeers(t *testing.T) {
	sev := createTestServer(t, fakeNetwork{})
	replaced, err := sev.Consensus(context.Background())
	require.NoError(t, err)
	assert.False(t, replaced)
}

func TestSelectChain(t *testing.T) {
	block := func(hash string) *model.Block { return &model.Block{Hash: hash} }
	short := &chainCandidate{addr: "a", blocks: []*model.Block{block("0"), block("9")}}
	longB := &chainCandidate{addr: "b", blocks: []*model.Block{block("0"), block("1"), block("5")}}
	longC := &chainCandidate{addr: "c", blocks: []*model.Block{block("0"), block("1"), block("3")}}
	longD := &chainCandidate{addr: "d", blocks: []*model.Block{block("0"), block("1"), block("3")}}

	assert.Nil(t, selectChain(nil, 1))
	assert.Nil(t, selectChain([]*chainCandidate{short, nil}, 2))
	assert.Equal(t, short, selectChain([]*chainCandidate{nil, short}, 1))
	assert.Equal(t, longC, selectChain([]*chainCandidate{short, longB, longC}, 1))
	assert.Equal(t, longC, selectChain([]*chainCandidate{longD, longB, longC}, 1))
	assert.Equal(t, longC, selectChain([]*chainCandidate{longC, longD}, 1))
}
