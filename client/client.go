package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultTimeout = 10 * time.Second

var ErrNotConnected = errors.New("not connected to any full node, use connect first")

// Client submits records to a full node and inspects its ledger.
type Client struct {
	FullNodeClient service.FullNodeServiceClient
	conn           io.Closer
	// Bound for every call except mining, which runs as long as the node needs.
	timeout time.Duration
	logger  *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return &Client{timeout: defaultTimeout, logger: logger}
}

// Log a line for the user.
func (c *Client) Log(msg string, args ...any) {
	c.logger.Info(msg, args...)
}

func (c *Client) SetFullNodeConnection(addr string) error {
	conn, err := grpc.Dial(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(service.CodecName)),
	)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	c.Close()
	c.conn = conn
	c.FullNodeClient = service.NewFullNodeServiceClient(conn)
	return nil
}

// Close the connection to the full node, if any.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) call(f func(ctx context.Context) error) error {
	if c.FullNodeClient == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return f(ctx)
}

// SendRecord submits a record with the given author and content.
func (c *Client) SendRecord(author string, content string) error {
	return c.call(func(ctx context.Context) error {
		_, err := c.FullNodeClient.SubmitTransaction(ctx, &service.SubmitTransactionRequest{
			Tx: model.Record{"author": author, "content": content},
		})
		return err
	})
}

// AskMine asks the node to seal its pending records and waits for the outcome.
func (c *Client) AskMine() (*service.MineResponse, error) {
	if c.FullNodeClient == nil {
		return nil, ErrNotConnected
	}
	return c.FullNodeClient.Mine(context.Background(), &service.MineRequest{})
}

func (c *Client) GetChain() (*service.GetChainResponse, error) {
	var res *service.GetChainResponse
	err := c.call(func(ctx context.Context) error {
		var err error
		res, err = c.FullNodeClient.GetChain(ctx, &service.GetChainRequest{})
		return err
	})
	return res, err
}

func (c *Client) GetPending() ([]model.Record, error) {
	var res *service.GetPendingResponse
	err := c.call(func(ctx context.Context) error {
		var err error
		res, err = c.FullNodeClient.GetPending(ctx, &service.GetPendingRequest{})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res.Txs, nil
}

// Bootstrap asks the connected node to register with the node at addr.
func (c *Client) Bootstrap(addr string) (bool, error) {
	var res *service.RegisterWithResponse
	err := c.call(func(ctx context.Context) error {
		var err error
		res, err = c.FullNodeClient.RegisterWith(ctx, &service.RegisterWithRequest{NodeAddr: addr})
		return err
	})
	if err != nil {
		return false, err
	}
	return res.Replaced, nil
}

// FormatChain renders the last d blocks of a chain, one line per block, the tail last.
func FormatChain(chain []*model.Block, d int) string {
	start := len(chain) - 1 - d
	if start < 0 {
		start = 0
	}
	s := ""
	for _, b := range chain[start:] {
		s += fmt.Sprintf("#%d %s <- %s nonce=%d records=%d\n", b.Index, b.Hash, b.PrevHash, b.Nonce, len(b.Txs))
		for _, r := range b.Txs {
			s += fmt.Sprintf("    %v: %v\n", r["author"], r["content"])
		}
	}
	return s
}
