package model

// GenesisPrevHash is the previous hash every chain starts from.
const GenesisPrevHash = "0"

type Block struct {
	// Position of the block in the chain, genesis is 0.
	Index int64 `json:"index"`
	// Records sealed in this block, in submission order.
	Txs []Record `json:"transactions"`
	// Seconds since epoch, assigned when the candidate is built and never recomputed.
	Timestamp float64 `json:"timestamp"`
	// Hash of the previous block in the hex format.
	PrevHash string `json:"previous_hash"`
	// Nonce is the miner's challenge for sealing the block.
	Nonce int64 `json:"nonce"`
	// Hash of this block in the hex string format. Empty until the block is sealed.
	Hash string `json:"hash,omitempty"`
}

// IsSealed reports whether a hash has been assigned. It says nothing about whether the
// hash is correct, use utils.IsValidProof for that.
func (b *Block) IsSealed() bool {
	return b.Hash != ""
}

// Blockchain is the linear sequence of sealed blocks, genesis first.
type Blockchain struct {
	Blocks []*Block
}

// NewGenesisBlock returns the unsealed genesis candidate. Every field is fixed so every
// node sealing it with the same difficulty ends with the same hash.
func NewGenesisBlock() *Block {
	return &Block{
		Index:     0,
		Txs:       []Record{},
		Timestamp: 0,
		PrevHash:  GenesisPrevHash,
	}
}

// Create a blockchain from an already sealed genesis block.
func NewBlockChain(genesis *Block) *Blockchain {
	return &Blockchain{
		Blocks: []*Block{genesis},
	}
}

// Tail returns the most recently appended block.
func (bc *Blockchain) Tail() *Block {
	return bc.Blocks[len(bc.Blocks)-1]
}

// Genesis returns the first block.
func (bc *Blockchain) Genesis() *Block {
	return bc.Blocks[0]
}

func (bc *Blockchain) Len() int {
	return len(bc.Blocks)
}
