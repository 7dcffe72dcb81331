package client

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type fakeNode struct {
	service.FullNodeServiceClient
	submitted []model.Record
	bootstrap string
}

func (f *fakeNode) SubmitTransaction(ctx context.Context, in *service.SubmitTransactionRequest, opts ...grpc.CallOption) (*service.SubmitTransactionResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("call without deadline")
	}
	f.submitted = append(f.submitted, in.Tx)
	return &service.SubmitTransactionResponse{}, nil
}

func (f *fakeNode) GetPending(ctx context.Context, in *service.GetPendingRequest, opts ...grpc.CallOption) (*service.GetPendingResponse, error) {
	return &service.GetPendingResponse{Txs: f.submitted}, nil
}

func (f *fakeNode) RegisterWith(ctx context.Context, in *service.RegisterWithRequest, opts ...grpc.CallOption) (*service.RegisterWithResponse, error) {
	f.bootstrap = in.NodeAddr
	return &service.RegisterWithResponse{Replaced: true}, nil
}

func TestClientRequiresConnection(t *testing.T) {
	c := NewClient(slog.Default())
	assert.ErrorIs(t, c.SendRecord("a", "hi"), ErrNotConnected)
	_, err := c.AskMine()
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = c.GetChain()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientCalls(t *testing.T) {
	node := &fakeNode{}
	c := NewClient(slog.Default())
	c.FullNodeClient = node

	require.NoError(t, c.SendRecord("alice", "hello world"))
	pending, err := c.GetPending()
	require.NoError(t, err)
	assert.Equal(t, []model.Record{{"author": "alice", "content": "hello world"}}, pending)

	replaced, err := c.Bootstrap("127.0.0.1:10001")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "127.0.0.1:10001", node.bootstrap)
}

func TestFormatChain(t *testing.T) {
	chain := []*model.Block{
		{Index: 0, PrevHash: "0", Hash: "00aa"},
		{Index: 1, PrevHash: "00aa", Hash: "00bb", Nonce: 7, Txs: []model.Record{{"author": "a", "content": "hi"}}},
	}
	assert.Equal(t, "#1 00bb <- 00aa nonce=7 records=1\n    a: hi\n", FormatChain(chain, 0))
	assert.Contains(t, FormatChain(chain, 5), "#0 00aa <- 0")
}
