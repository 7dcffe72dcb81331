package service

import "github.com/Luismorlan/pow_ledger/model"

type SubmitTransactionRequest struct {
	Tx model.Record `json:"tx"`
}

type SubmitTransactionResponse struct{}

type MineRequest struct{}

type MineResponse struct {
	// False when there was nothing to mine.
	Mined bool  `json:"mined"`
	Index int64 `json:"index"`
	// Set when the mined block was superseded by a longer peer chain and never announced.
	Superseded bool `json:"superseded,omitempty"`
}

type GetChainRequest struct{}

type GetChainResponse struct {
	Length int            `json:"length"`
	Chain  []*model.Block `json:"chain"`
	Peers  []string       `json:"peers"`
}

type RegisterPeerRequest struct {
	NodeAddr string `json:"node_address"`
}

type RegisterPeerResponse struct{}

type AddBlockRequest struct {
	Block *model.Block `json:"block"`
}

type AddBlockResponse struct{}

type SyncChainRequest struct {
	Chain []*model.Block `json:"chain"`
}

type SyncChainResponse struct {
	Replaced bool `json:"replaced"`
}

type GetPendingRequest struct{}

type GetPendingResponse struct {
	Txs []model.Record `json:"transactions"`
}

type RegisterWithRequest struct {
	NodeAddr string `json:"node_address"`
}

type RegisterWithResponse struct {
	Replaced bool `json:"replaced"`
}
