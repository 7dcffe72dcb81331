package full_node

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
)

// AnnounceBlock pushes a sealed block to every peer. Each send is independent, a peer
// that cannot be reached or rejects the block is logged and otherwise ignored. Returns how
// many peers accepted it.
func (sev *FullNodeServer) AnnounceBlock(ctx context.Context, block *model.Block) int {
	peers := sev.peers.GetAllPeers()
	var accepted int32
	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p Peer) {
			defer wg.Done()
			pctx, cancel := sev.peerContext(ctx)
			defer cancel()
			_, err := p.client.AddBlock(pctx, &service.AddBlockRequest{Block: block})
			if err != nil {
				sev.metrics.PeerFailures.WithLabelValues("add_block").Inc()
				sev.logger.Warn("block announcement failed", "peer", p.addr, "index", block.Index,
					"err", &PeerUnavailableError{Addr: p.addr, Op: "add_block", Err: err})
				return
			}
			atomic.AddInt32(&accepted, 1)
		}(p)
	}
	wg.Wait()
	return int(accepted)
}
