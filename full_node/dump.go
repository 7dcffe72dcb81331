package full_node

import (
	"errors"
	"fmt"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/utils"
)

// BlockFromWire rebuilds an unsealed block from the fields a peer sent and returns it
// together with the hash the peer claims for it. Nothing of the wire value is reused.
func BlockFromWire(raw *model.Block) (*model.Block, string, error) {
	if raw == nil {
		return nil, "", errors.New("block is missing")
	}
	txs, err := utils.NormalizeRecords(raw.Txs)
	if err != nil {
		return nil, "", err
	}
	block := &model.Block{
		Index:     raw.Index,
		Txs:       txs,
		Timestamp: raw.Timestamp,
		PrevHash:  raw.PrevHash,
		Nonce:     raw.Nonce,
	}
	return block, raw.Hash, nil
}

// ChainFromDump reconstructs a chain from a peer supplied dump. The dump must start with
// our own genesis; every following block is rebuilt and appended with the regular append
// checks. The first failure discards the whole reconstruction with ErrTamperedDump.
func ChainFromDump(dump []*model.Block, genesis *model.Block, difficulty int) ([]*model.Block, error) {
	if len(dump) == 0 {
		return nil, fmt.Errorf("%w: empty dump", ErrTamperedDump)
	}
	if dump[0] == nil || dump[0].Hash != genesis.Hash {
		return nil, fmt.Errorf("%w: genesis does not match", ErrTamperedDump)
	}
	bc := model.NewBlockChain(cloneBlock(genesis))
	for i, raw := range dump[1:] {
		block, proof, err := BlockFromWire(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrTamperedDump, i+1, err)
		}
		if _, err := appendBlock(bc, block, proof, difficulty); err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrTamperedDump, i+1, err)
		}
	}
	return bc.Blocks, nil
}
