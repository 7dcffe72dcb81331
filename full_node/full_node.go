package full_node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/utils"
	"github.com/jinzhu/copier"
)

// A full node should maintain the blockchain and the pool of records waiting to be sealed.
// Every mutation goes through the single mutex, mining only holds it to take the snapshot
// and to append the sealed block.
type FullNode struct {
	// The blockchain it needs to maintain.
	blockchain *model.Blockchain
	// Records submitted but not sealed yet.
	txPool *model.TransactionPool
	// Blockchain config.
	config config.AppConfig
	// A single mutex for changing internal state.
	m sync.RWMutex
	// The running search, nil when idle.
	mining *miningTask
	// Time source for block timestamps.
	now func() float64
}

type miningTask struct {
	cancel context.CancelCauseFunc
}

// Create a brand new full node, which contains a sealed genesis block in the chain.
func NewFullNode(c config.AppConfig) (*FullNode, error) {
	genesis, err := utils.CreateGenesisBlock(c.DIFFICULTY)
	if err != nil {
		return nil, fmt.Errorf("sealing genesis: %w", err)
	}
	return &FullNode{
		blockchain: model.NewBlockChain(genesis),
		txPool:     model.NewTransactionPool(),
		config:     c,
		now:        unixSeconds,
	}, nil
}

func unixSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

func (f *FullNode) Difficulty() int {
	return f.config.DIFFICULTY
}

// Submit adds a record to the pending pool, without dedup. A record that cannot be
// encoded is refused, it would fail every later search.
func (f *FullNode) Submit(r model.Record) error {
	if _, err := utils.EncodeRecord(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	f.m.Lock()
	defer f.m.Unlock()
	f.txPool.Add(r)
	return nil
}

// Mine seals every record pending at call time into one new block on top of the tail.
// The proof-of-work search runs without the lock. The append and the removal of the
// sealed records from the pool happen in one critical section, so nobody observes one
// without the other. A search is cancelled with ErrTailChanged as cause when a peer block
// or a resync moves the tail while it runs.
func (f *FullNode) Mine(ctx context.Context) (*model.Block, error) {
	f.m.Lock()
	if f.txPool.Len() == 0 {
		f.m.Unlock()
		return nil, ErrNothingToMine
	}
	if f.mining != nil {
		f.m.Unlock()
		return nil, ErrMiningInProgress
	}
	txs := f.txPool.Snapshot()
	candidate := utils.CreateNewBlock(txs, f.blockchain.Tail(), f.now())
	difficulty := f.config.DIFFICULTY
	mctx, cancel := context.WithCancelCause(ctx)
	task := &miningTask{cancel: cancel}
	f.mining = task
	f.m.Unlock()

	digest, nonce, err := utils.Mine(mctx, candidate, difficulty)
	var cause error
	if err != nil && mctx.Err() != nil {
		cause = context.Cause(mctx)
	}
	cancel(nil)

	f.m.Lock()
	defer f.m.Unlock()
	if f.mining == task {
		f.mining = nil
	}
	if cause != nil {
		return nil, fmt.Errorf("%w: %w", ErrMiningCancelled, cause)
	}
	if err != nil {
		return nil, err
	}

	candidate.Nonce = nonce
	block, err := f.appendLocked(candidate, digest)
	if err != nil {
		return nil, err
	}
	f.txPool.Drain(len(txs))
	return cloneBlock(block), nil
}

// Append adds a block proposed by someone else. It is the only way to grow the chain by
// one block, locally mined blocks go through the same checks.
func (f *FullNode) Append(block *model.Block, proof string) error {
	f.m.Lock()
	defer f.m.Unlock()
	if _, err := f.appendLocked(block, proof); err != nil {
		return err
	}
	f.interruptMiningLocked()
	return nil
}

func (f *FullNode) appendLocked(block *model.Block, proof string) (*model.Block, error) {
	return appendBlock(f.blockchain, block, proof, f.config.DIFFICULTY)
}

// appendBlock checks that block extends the tail of bc and that proof is a valid seal of
// it, then appends a copy of it with the hash set to proof.
func appendBlock(bc *model.Blockchain, block *model.Block, proof string, difficulty int) (*model.Block, error) {
	tail := bc.Tail()
	if block.PrevHash != tail.Hash {
		return nil, fmt.Errorf("%w: previous hash %s, tail %s", ErrStaleBlock, block.PrevHash, tail.Hash)
	}
	if block.Index != tail.Index+1 {
		return nil, fmt.Errorf("%w: index %d, tail index %d", ErrStaleBlock, block.Index, tail.Index)
	}
	if !utils.IsValidProof(block, proof, difficulty) {
		return nil, fmt.Errorf("%w: block %d hash %s", ErrInvalidProof, block.Index, proof)
	}
	sealed := *block
	sealed.Hash = proof
	bc.Blocks = append(bc.Blocks, &sealed)
	return &sealed, nil
}

// ReplaceIfLonger adopts blocks as the whole chain when they form a valid chain from the
// same genesis that is strictly longer than the current one. The pending pool is kept.
func (f *FullNode) ReplaceIfLonger(blocks []*model.Block) (bool, error) {
	if !utils.CheckChainValidity(blocks, f.config.DIFFICULTY) {
		return false, ErrInvalidChain
	}
	f.m.Lock()
	defer f.m.Unlock()
	if blocks[0].Hash != f.blockchain.Genesis().Hash {
		return false, fmt.Errorf("%w: genesis %s differs from ours", ErrInvalidChain, blocks[0].Hash)
	}
	if len(blocks) <= f.blockchain.Len() {
		return false, nil
	}
	f.blockchain = &model.Blockchain{Blocks: cloneBlocks(blocks)}
	f.interruptMiningLocked()
	return true, nil
}

func (f *FullNode) interruptMiningLocked() {
	if f.mining != nil {
		f.mining.cancel(ErrTailChanged)
	}
}

// IsMining reports whether a search is running.
func (f *FullNode) IsMining() bool {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.mining != nil
}

// Snapshot returns a deep copy of the chain, consistent with a single point in time.
func (f *FullNode) Snapshot() []*model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return cloneBlocks(f.blockchain.Blocks)
}

// Pending returns a copy of the pending records in submission order.
func (f *FullNode) Pending() []model.Record {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.txPool.Snapshot()
}

// Return a copy of the tail block.
func (f *FullNode) GetTail() *model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return cloneBlock(f.blockchain.Tail())
}

// Return a copy of the genesis block.
func (f *FullNode) GetGenesis() *model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return cloneBlock(f.blockchain.Genesis())
}

// GetHeight returns the number of blocks, genesis included.
func (f *FullNode) GetHeight() int {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.blockchain.Len()
}

// cloneBlock copies the block fields. The records are shared, they are never mutated once
// submitted.
func cloneBlock(b *model.Block) *model.Block {
	c := &model.Block{}
	if err := copier.Copy(c, b); err != nil {
		// Both sides are *model.Block, copier only fails on a nil source.
		panic(fmt.Errorf("copying block: %w", err))
	}
	c.Txs = make([]model.Record, len(b.Txs))
	copy(c.Txs, b.Txs)
	return c
}

func cloneBlocks(blocks []*model.Block) []*model.Block {
	out := make([]*model.Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, cloneBlock(b))
	}
	return out
}
