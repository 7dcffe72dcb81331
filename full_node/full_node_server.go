package full_node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/Luismorlan/pow_ledger/utils"
	"github.com/Luismorlan/pow_ledger/visualize"
	uuid "github.com/satori/go.uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FullNodeServer exposes the ledger to clients and peers and drives the mine, reconcile,
// announce cycle.
type FullNodeServer struct {
	service.UnimplementedFullNodeServiceServer
	// Peers this node reconciles with and announces blocks to.
	peers *PeerSet
	// Address peers reach this node at.
	addr string

	fullNode *FullNode
	config   config.AppConfig
	logger   *slog.Logger
	metrics  *Metrics
	state    atomic.Int32
	// Set while a catch up pass started by a stale peer block runs.
	catchingUp atomic.Bool
	// A unique identifier of this node, only used for logs and rendered file names.
	uuid string
}

type Option func(*FullNodeServer)

// WithDialer replaces the gRPC dialer used to reach peers.
func WithDialer(d Dialer) Option {
	return func(sev *FullNodeServer) {
		sev.peers = NewPeerSet(d)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(sev *FullNodeServer) {
		sev.logger = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(sev *FullNodeServer) {
		sev.metrics = m
	}
}

// Create a new full node server listening at addr. Peers are added later through
// RegisterPeer or RegisterWith.
func NewFullNodeServer(c config.AppConfig, addr string, opts ...Option) (*FullNodeServer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	fullNode, err := NewFullNode(c)
	if err != nil {
		return nil, err
	}
	sev := &FullNodeServer{
		peers:    NewPeerSet(GrpcDialer),
		addr:     NormalizeAddr(addr),
		fullNode: fullNode,
		config:   c,
		logger:   slog.Default(),
		metrics:  NewMetrics(),
		uuid:     uuid.NewV4().String(),
	}
	for _, opt := range opts {
		opt(sev)
	}
	sev.logger = sev.logger.With("node", sev.uuid[:8])
	sev.updateGauges()
	return sev, nil
}

func (sev *FullNodeServer) FullNode() *FullNode {
	return sev.fullNode
}

func (sev *FullNodeServer) Peers() *PeerSet {
	return sev.peers
}

func (sev *FullNodeServer) Metrics() *Metrics {
	return sev.metrics
}

func (sev *FullNodeServer) ID() string {
	return sev.uuid
}

func (sev *FullNodeServer) Addr() string {
	return sev.addr
}

func (sev *FullNodeServer) State() NodeState {
	return NodeState(sev.state.Load())
}

func (sev *FullNodeServer) updateGauges() {
	sev.metrics.ChainHeight.Set(float64(sev.fullNode.GetHeight()))
	sev.metrics.PendingRecords.Set(float64(len(sev.fullNode.Pending())))
}

// MineResult is the outcome of one mining trigger.
type MineResult struct {
	Mined bool
	// Index of the mined block.
	Index int64
	// The mined block lost against a longer peer chain and was not announced.
	Superseded bool
}

// TriggerMine runs one Idle -> Mining -> Reconciling -> Idle cycle. An empty pool is not
// an error, it yields a result with Mined false. The block is announced only when the
// consensus pass that follows did not replace the chain.
func (sev *FullNodeServer) TriggerMine(ctx context.Context) (MineResult, error) {
	if !sev.state.CompareAndSwap(int32(Idle), int32(Mining)) {
		return MineResult{}, ErrMiningInProgress
	}
	defer sev.state.Store(int32(Idle))

	block, err := sev.fullNode.Mine(ctx)
	if errors.Is(err, ErrNothingToMine) {
		return MineResult{}, nil
	}
	if err != nil {
		return MineResult{}, err
	}
	sev.metrics.BlocksMined.Inc()
	sev.updateGauges()
	sev.logger.Info("mined block", "index", block.Index, "hash", block.Hash, "records", len(block.Txs))

	// Making sure we have the longest chain before announcing to the network.
	sev.state.Store(int32(Reconciling))
	replaced, err := sev.Consensus(ctx)
	if err != nil {
		sev.logger.Warn("consensus after mining failed", "err", err)
	}
	if replaced {
		sev.metrics.BlocksSuperseded.Inc()
		sev.logger.Info("mined block superseded by a longer chain", "index", block.Index)
		return MineResult{Mined: true, Index: block.Index, Superseded: true}, nil
	}
	sev.AnnounceBlock(ctx, block)
	return MineResult{Mined: true, Index: block.Index}, nil
}

// AutoMine keeps mining until ctx is done. A search interrupted by a tail change starts
// over right away when REMINE_ON_TAIL_CHANGE is set, otherwise it waits like an empty
// pool does.
func (sev *FullNodeServer) AutoMine(ctx context.Context, idle time.Duration) {
	for ctx.Err() == nil {
		res, err := sev.TriggerMine(ctx)
		switch {
		case err == nil && res.Mined:
			continue
		case errors.Is(err, ErrTailChanged) && sev.config.REMINE_ON_TAIL_CHANGE:
			sev.logger.Info("tail changed, mining again on the new tail")
			continue
		case err != nil && ctx.Err() == nil:
			sev.logger.Warn("mining failed", "err", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(idle):
		}
	}
}

// RunConsensus runs a consensus pass every CONSENSUS_INTERVAL until ctx is done. A zero
// interval disables it.
func (sev *FullNodeServer) RunConsensus(ctx context.Context) {
	if sev.config.CONSENSUS_INTERVAL <= 0 {
		return
	}
	ticker := time.NewTicker(sev.config.CONSENSUS_INTERVAL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sev.Consensus(ctx); err != nil {
				sev.logger.Warn("periodic consensus failed", "err", err)
			}
		}
	}
}

// Add a peer. The node never adds itself.
func (sev *FullNodeServer) AddPeer(addr string) (bool, error) {
	addr = NormalizeAddr(addr)
	if addr == sev.addr {
		return false, nil
	}
	added, err := sev.peers.Add(addr)
	if added {
		sev.logger.Info("registered peer", "peer", addr)
	}
	return added, err
}

// SyncFromDump rebuilds a chain from a dump and adopts it when it is longer. A tampered
// dump leaves the local chain untouched.
func (sev *FullNodeServer) SyncFromDump(dump []*model.Block) (bool, error) {
	blocks, err := ChainFromDump(dump, sev.fullNode.GetGenesis(), sev.fullNode.Difficulty())
	if err != nil {
		sev.metrics.TamperedDumps.Inc()
		return false, err
	}
	replaced, err := sev.fullNode.ReplaceIfLonger(blocks)
	if err != nil {
		return false, err
	}
	if replaced {
		sev.metrics.ChainReplacements.Inc()
		sev.updateGauges()
	}
	return replaced, nil
}

// Add a mutual connection to a remote full node: register there, then sync with its chain
// and learn its peers.
func (sev *FullNodeServer) AddMutualConnection(ctx context.Context, addr string) (bool, error) {
	addr = NormalizeAddr(addr)
	if addr == "" || addr == sev.addr {
		return false, fmt.Errorf("invalid node address %q", addr)
	}
	_, existed := sev.peers.Get(addr)
	if _, err := sev.AddPeer(addr); err != nil {
		return false, err
	}
	p, err := sev.registeredPeer(addr, "register_with")
	if err != nil {
		return false, err
	}

	pctx, cancel := sev.peerContext(ctx)
	defer cancel()
	_, err = p.client.RegisterPeer(pctx, &service.RegisterPeerRequest{NodeAddr: sev.addr})
	if err == nil {
		var res *service.GetChainResponse
		res, err = p.client.GetChain(pctx, &service.GetChainRequest{})
		if err == nil {
			replaced, serr := sev.SyncFromDump(res.Chain)
			if serr != nil {
				return false, serr
			}
			for _, peer := range res.Peers {
				if _, perr := sev.AddPeer(peer); perr != nil {
					sev.logger.Warn("could not add peer learnt from bootstrap node", "peer", peer, "err", perr)
				}
			}
			return replaced, nil
		}
	}
	// Peer cannot register us, prune this peer unless we knew it before.
	if !existed {
		sev.peers.Remove(addr)
	}
	sev.metrics.PeerFailures.WithLabelValues("register_with").Inc()
	return false, &PeerUnavailableError{Addr: addr, Op: "register_with", Err: err}
}

// registeredPeer looks addr up in the peer set. A peer removed concurrently, by Close for
// instance, is reported as unavailable.
func (sev *FullNodeServer) registeredPeer(addr, op string) (Peer, error) {
	p, ok := sev.peers.Get(addr)
	if !ok {
		return Peer{}, &PeerUnavailableError{Addr: addr, Op: op, Err: errPeerRemoved}
	}
	return p, nil
}

// SubmitTransaction checks the record has an author and a content, stamps it and adds it
// to the pending pool.
func (sev *FullNodeServer) SubmitTransaction(ctx context.Context, req *service.SubmitTransactionRequest) (*service.SubmitTransactionResponse, error) {
	tx := req.Tx
	for _, field := range []string{"author", "content"} {
		if v, ok := tx[field]; !ok || v == nil || v == "" {
			return nil, status.Errorf(codes.InvalidArgument, "invalid transaction data: missing %s", field)
		}
	}
	record := model.Record{}
	for k, v := range tx {
		record[k] = v
	}
	record["timestamp"] = sev.fullNode.now()
	record, err := utils.NormalizeRecord(record)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction data: %v", err)
	}
	if err := sev.fullNode.Submit(record); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sev.updateGauges()
	return &service.SubmitTransactionResponse{}, nil
}

func (sev *FullNodeServer) Mine(ctx context.Context, req *service.MineRequest) (*service.MineResponse, error) {
	res, err := sev.TriggerMine(ctx)
	switch {
	case err == nil:
		return &service.MineResponse{Mined: res.Mined, Index: res.Index, Superseded: res.Superseded}, nil
	case errors.Is(err, ErrMiningInProgress):
		return nil, status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrMiningCancelled), errors.Is(err, ErrStaleBlock):
		return nil, status.Error(codes.Aborted, err.Error())
	default:
		return nil, status.Error(codes.Internal, err.Error())
	}
}

// Return the node's copy of the chain and its peers.
func (sev *FullNodeServer) GetChain(ctx context.Context, req *service.GetChainRequest) (*service.GetChainResponse, error) {
	chain := sev.fullNode.Snapshot()
	return &service.GetChainResponse{
		Length: len(chain),
		Chain:  chain,
		Peers:  sev.peers.Addresses(),
	}, nil
}

func (sev *FullNodeServer) RegisterPeer(ctx context.Context, req *service.RegisterPeerRequest) (*service.RegisterPeerResponse, error) {
	if NormalizeAddr(req.NodeAddr) == "" {
		return nil, status.Error(codes.InvalidArgument, "invalid node address")
	}
	if _, err := sev.AddPeer(req.NodeAddr); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "cannot add peer: %v", err)
	}
	return &service.RegisterPeerResponse{}, nil
}

// AddBlock handles a block mined by someone else. The block is verified and appended, or
// discarded with an error telling the sender why.
func (sev *FullNodeServer) AddBlock(ctx context.Context, req *service.AddBlockRequest) (*service.AddBlockResponse, error) {
	block, proof, err := BlockFromWire(req.Block)
	if err != nil {
		sev.metrics.BlocksRejected.WithLabelValues("malformed").Inc()
		return nil, status.Errorf(codes.InvalidArgument, "the block was discarded by the node: %v", err)
	}
	err = sev.fullNode.Append(block, proof)
	switch {
	case err == nil:
		sev.metrics.BlocksAccepted.Inc()
		sev.updateGauges()
		sev.logger.Info("received block", "index", block.Index, "hash", proof)
		return &service.AddBlockResponse{}, nil
	case errors.Is(err, ErrStaleBlock):
		sev.metrics.BlocksRejected.WithLabelValues("stale").Inc()
		sev.logger.Info("discarded stale block", "index", block.Index, "err", err)
		if block.Index >= int64(sev.fullNode.GetHeight()) {
			// The sender is ahead of us, catch up in the background.
			go func() {
				if _, err := sev.Consensus(context.Background()); err != nil {
					sev.logger.Warn("catch up consensus failed", "err", err)
				}
			}()
		}
		return nil, status.Errorf(codes.FailedPrecondition, "the block was discarded by the node: %v", err)
	default:
		sev.metrics.BlocksRejected.WithLabelValues("invalid").Inc()
		sev.logger.Info("discarded invalid block", "index", block.Index, "err", err)
		return nil, status.Errorf(codes.InvalidArgument, "the block was discarded by the node: %v", err)
	}
}

// catchUp runs one background consensus pass because a peer is ahead of us. Announcements
// arriving while it runs do not start another one.
func (sev *FullNodeServer) catchUp() {
	if !sev.catchingUp.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer sev.catchingUp.Store(false)
		if _, err := sev.Consensus(context.Background()); err != nil {
			sev.logger.Warn("catch up consensus failed", "err", err)
		}
	}()
}

// SyncChain adopts a chain dump when it is valid and longer than ours.
func (sev *FullNodeServer) SyncChain(ctx context.Context, req *service.SyncChainRequest) (*service.SyncChainResponse, error) {
	replaced, err := sev.SyncFromDump(req.Chain)
	if err != nil {
		sev.logger.Warn("rejected chain dump", "err", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &service.SyncChainResponse{Replaced: replaced}, nil
}

func (sev *FullNodeServer) GetPending(ctx context.Context, req *service.GetPendingRequest) (*service.GetPendingResponse, error) {
	return &service.GetPendingResponse{Txs: sev.fullNode.Pending()}, nil
}

// RegisterWith asks this node to register itself with the node at req.NodeAddr.
func (sev *FullNodeServer) RegisterWith(ctx context.Context, req *service.RegisterWithRequest) (*service.RegisterWithResponse, error) {
	replaced, err := sev.AddMutualConnection(ctx, req.NodeAddr)
	if err != nil {
		var pu *PeerUnavailableError
		switch {
		case errors.As(err, &pu):
			return nil, status.Error(codes.Unavailable, err.Error())
		default:
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return &service.RegisterWithResponse{Replaced: replaced}, nil
}

// Close drops every peer connection.
func (sev *FullNodeServer) Close() {
	sev.peers.Close()
}

// Render draws the last d blocks of the chain to an image and returns its path.
func (sev *FullNodeServer) Render(d int) (string, error) {
	return visualize.Render(sev.fullNode.Snapshot(), d, sev.uuid)
}
