package model

// Record is an opaque application payload, e.g. {"author": "a", "content": "hi"}.
// The ledger never interprets it beyond hashing its JSON form.
type Record map[string]interface{}

type TransactionPool struct {
	// TxPool contains all pending records that haven't been sealed into the blockchain yet,
	// in submission order. No dedup is done.
	TxPool []Record
}

// NewTransactionPool creates a new transaction pool with no record at all.
func NewTransactionPool() *TransactionPool {
	return &TransactionPool{
		TxPool: []Record{},
	}
}

func (p *TransactionPool) Add(r Record) {
	p.TxPool = append(p.TxPool, r)
}

func (p *TransactionPool) Len() int {
	return len(p.TxPool)
}

// Snapshot returns a copy of the pending records so the caller can seal them while new
// records keep arriving.
func (p *TransactionPool) Snapshot() []Record {
	txs := make([]Record, len(p.TxPool))
	copy(txs, p.TxPool)
	return txs
}

// Drain removes the first n records, which must be the ones a sealed block absorbed.
// Records submitted after the snapshot was taken stay in the pool.
func (p *TransactionPool) Drain(n int) {
	if n >= len(p.TxPool) {
		p.TxPool = []Record{}
		return
	}
	rest := make([]Record, len(p.TxPool)-n)
	copy(rest, p.TxPool[n:])
	p.TxPool = rest
}
