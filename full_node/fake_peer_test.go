package full_node

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

var errUnreachable = errors.New("connection refused")

// fakePeer answers GetChain with a fixed dump and records the blocks pushed to it.
// Calls it does not override panic through the nil embedded interface.
type fakePeer struct {
	service.FullNodeServiceClient

	m        sync.Mutex
	chain    []*model.Block
	length   int
	down     bool
	reject   bool
	received []*model.Block
	fetches  int
	// GetChain blocks until its context is done.
	hang bool
	// When set, GetChain ignores its context and blocks until the channel is closed.
	stuck chan struct{}
}

func newFakePeer(chain []*model.Block) *fakePeer {
	return &fakePeer{chain: chain, length: len(chain)}
}

func (p *fakePeer) GetChain(ctx context.Context, in *service.GetChainRequest, opts ...grpc.CallOption) (*service.GetChainResponse, error) {
	p.m.Lock()
	p.fetches++
	hang, down, stuck := p.hang, p.down, p.stuck
	p.m.Unlock()
	if stuck != nil {
		<-stuck
		return nil, errUnreachable
	}
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if down {
		return nil, errUnreachable
	}
	return &service.GetChainResponse{Length: p.length, Chain: p.chain}, nil
}

func (p *fakePeer) AddBlock(ctx context.Context, in *service.AddBlockRequest, opts ...grpc.CallOption) (*service.AddBlockResponse, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if p.down {
		return nil, errUnreachable
	}
	if p.reject {
		return nil, errors.New("the block was discarded by the node")
	}
	p.received = append(p.received, in.Block)
	return &service.AddBlockResponse{}, nil
}

func (p *fakePeer) RegisterPeer(ctx context.Context, in *service.RegisterPeerRequest, opts ...grpc.CallOption) (*service.RegisterPeerResponse, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if p.down {
		return nil, errUnreachable
	}
	return &service.RegisterPeerResponse{}, nil
}

func (p *fakePeer) Fetches() int {
	p.m.Lock()
	defer p.m.Unlock()
	return p.fetches
}

func (p *fakePeer) Received() []*model.Block {
	p.m.Lock()
	defer p.m.Unlock()
	return append([]*model.Block(nil), p.received...)
}

// fakeNetwork dials fake peers by address.
type fakeNetwork map[string]*fakePeer

func (n fakeNetwork) Dial(addr string) (service.FullNodeServiceClient, io.Closer, error) {
	p, ok := n[addr]
	if !ok {
		return nil, nil, errors.New("unknown address " + addr)
	}
	return p, nil, nil
}

func createTestServer(t *testing.T, network fakeNetwork) *FullNodeServer {
	t.Helper()
	sev, err := NewFullNodeServer(testConfig(), "localhost:5000", WithDialer(network.Dial))
	require.NoError(t, err)
	for addr := range network {
		_, err := sev.AddPeer(addr)
		require.NoError(t, err)
	}
	return sev
}

// Copies every block so a test can tamper with one chain without touching another.
func copyChain(chain []*model.Block) []*model.Block {
	return cloneBlocks(chain)
}
