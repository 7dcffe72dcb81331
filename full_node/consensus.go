package full_node

import (
	"context"
	"fmt"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
)

// A chain reported by a peer that survived reconstruction.
type chainCandidate struct {
	addr   string
	blocks []*model.Block
}

func (c *chainCandidate) tailHash() string {
	return c.blocks[len(c.blocks)-1].Hash
}

// Consensus asks every peer for its chain and adopts the longest valid one when it is
// strictly longer than ours. Peers that fail to answer or answer with an invalid chain are
// skipped. Returns whether the local chain was replaced.
func (sev *FullNodeServer) Consensus(ctx context.Context) (bool, error) {
	peers := sev.peers.GetAllPeers()
	if len(peers) == 0 {
		return false, nil
	}
	genesis := sev.fullNode.GetGenesis()
	localLen := sev.fullNode.GetHeight()

	// Every peer answers on its own goroutine. A hung peer is bounded by PEER_TIMEOUT, and
	// the pass stops waiting for stragglers once ctx is done.
	results := make(chan *chainCandidate, len(peers))
	for _, p := range peers {
		go func(p Peer) {
			blocks, err := sev.fetchChain(ctx, p, genesis)
			if err != nil {
				sev.logger.Warn("skipping peer chain", "peer", p.addr, "err", err)
				results <- nil
				return
			}
			results <- &chainCandidate{addr: p.addr, blocks: blocks}
		}(p)
	}
	candidates := make([]*chainCandidate, 0, len(peers))
collect:
	for range peers {
		select {
		case c := <-results:
			candidates = append(candidates, c)
		case <-ctx.Done():
			sev.logger.Warn("consensus pass cut short", "answered", len(candidates), "peers", len(peers), "err", ctx.Err())
			break collect
		}
	}

	best := selectChain(candidates, localLen)
	if best == nil {
		return false, nil
	}
	replaced, err := sev.fullNode.ReplaceIfLonger(best.blocks)
	if err != nil {
		return false, err
	}
	if replaced {
		sev.metrics.ChainReplacements.Inc()
		sev.updateGauges()
		sev.logger.Info("adopted longer chain", "peer", best.addr, "length", len(best.blocks), "tail", best.tailHash())
	}
	return replaced, nil
}

// fetchChain gets the peer's chain and rebuilds it. Transport failures come back as
// PeerUnavailableError, bad chains as ErrTamperedDump.
func (sev *FullNodeServer) fetchChain(ctx context.Context, p Peer, genesis *model.Block) ([]*model.Block, error) {
	ctx, cancel := sev.peerContext(ctx)
	defer cancel()
	res, err := p.client.GetChain(ctx, &service.GetChainRequest{})
	if err != nil {
		sev.metrics.PeerFailures.WithLabelValues("get_chain").Inc()
		return nil, &PeerUnavailableError{Addr: p.addr, Op: "get_chain", Err: err}
	}
	if res.Length != len(res.Chain) {
		return nil, fmt.Errorf("%w: reported length %d, got %d blocks", ErrTamperedDump, res.Length, len(res.Chain))
	}
	return ChainFromDump(res.Chain, genesis, sev.fullNode.Difficulty())
}

// peerContext bounds a single call to a peer by PEER_TIMEOUT.
func (sev *FullNodeServer) peerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, sev.config.PEER_TIMEOUT)
}

// selectChain picks the longest candidate strictly longer than localLen. Equal lengths are
// broken by the smallest tail hash, then by the smallest peer address, so the outcome
// never depends on the order peers answered in.
func selectChain(candidates []*chainCandidate, localLen int) *chainCandidate {
	var best *chainCandidate
	for _, c := range candidates {
		if c == nil || len(c.blocks) <= localLen {
			continue
		}
		if best == nil || betterChain(c, best) {
			best = c
		}
	}
	return best
}

func betterChain(a, b *chainCandidate) bool {
	if len(a.blocks) != len(b.blocks) {
		return len(a.blocks) > len(b.blocks)
	}
	if a.tailHash() != b.tailHash() {
		return a.tailHash() < b.tailHash()
	}
	return a.addr < b.addr
}
