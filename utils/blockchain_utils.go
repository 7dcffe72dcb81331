package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Luismorlan/pow_ledger/model"
)

// How many nonces are tried between two checks of the cancellation signal.
const CancelCheckInterval = 1024

// CreateNewBlock builds the unsealed candidate that extends tail with the given records.
// The nonce starts at 0 and the hash stays empty until Mine finds a proof.
func CreateNewBlock(txs []model.Record, tail *model.Block, timestamp float64) *model.Block {
	if txs == nil {
		txs = []model.Record{}
	}
	return &model.Block{
		Index:     tail.Index + 1,
		Txs:       txs,
		Timestamp: timestamp,
		PrevHash:  tail.Hash,
	}
}

// CreateGenesisBlock seals the fixed genesis block for the given difficulty.
func CreateGenesisBlock(difficulty int) (*model.Block, error) {
	genesis := model.NewGenesisBlock()
	digest, nonce, err := Mine(context.Background(), genesis, difficulty)
	if err != nil {
		return nil, err
	}
	genesis.Nonce = nonce
	genesis.Hash = digest
	return genesis, nil
}

// blockFields is the read-only projection of a block that the digest is computed over.
// The hash field is never part of it. A map is used on purpose: encoding/json sorts map
// keys, so the layout does not depend on struct field order.
func blockFields(block *model.Block, nonce int64) map[string]interface{} {
	txs := block.Txs
	if txs == nil {
		txs = []model.Record{}
	}
	return map[string]interface{}{
		"index":         block.Index,
		"transactions":  txs,
		"timestamp":     block.Timestamp,
		"previous_hash": block.PrevHash,
		"nonce":         nonce,
	}
}

// GetBlockBytes returns the canonical digest input of the block: compact JSON of every
// field but the hash, keys sorted.
func GetBlockBytes(block *model.Block) ([]byte, error) {
	return getBlockBytesWithNonce(block, block.Nonce)
}

func getBlockBytesWithNonce(block *model.Block, nonce int64) ([]byte, error) {
	return json.Marshal(blockFields(block, nonce))
}

// ComputeHash returns the hex SHA256 digest of the block's canonical bytes.
func ComputeHash(block *model.Block) (string, error) {
	blockBytes, err := GetBlockBytes(block)
	if err != nil {
		return "", err
	}
	return BytesToHex(SHA256(blockBytes)), nil
}

// Mine searches for the first nonce, counting from 0, whose digest has difficulty leading
// zero characters. The block itself is not touched, the caller assigns the returned nonce
// and digest together. The search stops with an error wrapping ctx.Err() once ctx is done.
func Mine(ctx context.Context, block *model.Block, difficulty int) (string, int64, error) {
	if difficulty < 0 {
		return "", 0, fmt.Errorf("invalid difficulty %d", difficulty)
	}
	for i := int64(0); i < math.MaxInt64; i++ {
		if i%CancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return "", 0, fmt.Errorf("mining interrupted at nonce %d: %w", i, ctx.Err())
			default:
			}
		}
		blockBytes, err := getBlockBytesWithNonce(block, i)
		if err != nil {
			return "", 0, err
		}
		digest := BytesToHex(SHA256(blockBytes))
		if HasLeadingZeros(digest, difficulty) {
			return digest, i, nil
		}
	}
	return "", 0, errors.New("failed to find any nonce")
}

// MatchDifficulty computes the digest of the block at its current nonce and reports
// whether it satisfies the difficulty.
func MatchDifficulty(block *model.Block, difficulty int) (bool, string) {
	digest, err := ComputeHash(block)
	if err != nil {
		return false, ""
	}
	return HasLeadingZeros(digest, difficulty), digest
}

// HasLeadingZeros reports whether the hex digest starts with difficulty '0' characters.
func HasLeadingZeros(digest string, difficulty int) bool {
	if difficulty < 0 || difficulty > len(digest) {
		return false
	}
	return strings.HasPrefix(digest, strings.Repeat("0", difficulty))
}

// IsValidProof is true iff claimedHash satisfies the difficulty and equals the digest
// recomputed from the block's fields.
func IsValidProof(block *model.Block, claimedHash string, difficulty int) bool {
	if !HasLeadingZeros(claimedHash, difficulty) {
		return false
	}
	digest, err := ComputeHash(block)
	if err != nil {
		return false
	}
	return digest == claimedHash
}

// CheckChainValidity walks the chain from genesis and stops at the first block whose
// stored hash is not a valid proof at the current difficulty or which does not link to
// its predecessor. The blocks are only read.
func CheckChainValidity(blocks []*model.Block, difficulty int) bool {
	if len(blocks) == 0 {
		return false
	}
	prevHash := model.GenesisPrevHash
	for i, block := range blocks {
		if block == nil || block.Index != int64(i) {
			return false
		}
		if !IsValidProof(block, block.Hash, difficulty) || block.PrevHash != prevHash {
			return false
		}
		prevHash = block.Hash
	}
	return true
}
