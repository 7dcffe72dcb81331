package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Luismorlan/pow_ledger/commands"
	"github.com/Luismorlan/pow_ledger/config"
	"github.com/Luismorlan/pow_ledger/full_node"
	"github.com/Luismorlan/pow_ledger/layout"
	"github.com/Luismorlan/pow_ledger/model"
	"github.com/Luismorlan/pow_ledger/service"
	"github.com/jroimartin/gocui"
	"github.com/pterm/pterm"
	"google.golang.org/grpc"
)

var (
	port       *string
	host       *string
	peers      *string
	configPath *string
	debugMode  *bool
	verbose    *bool
)

func init() {
	port = flag.String("port", "10000", "port to listen to peers and clients")
	host = flag.String("host", "localhost", "host peers reach this node at")
	peers = flag.String("peers", "", "comma separated host:port of nodes to register with on startup")
	configPath = flag.String("config_path", "full_node/cmd/config.yaml", "path to full node config, yaml or toml")
	debugMode = flag.Bool("debug_mode", false, "Using debug mode will disable fancy GUI.")
	verbose = flag.Bool("verbose", false, "print debug level logs")
}

// How long auto mining waits before looking at an empty pool again.
const autoMineIdle = time.Second

func ParseCommand(cmd chan commands.Command) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		// convert CRLF to LF
		text = strings.TrimRight(text, "\r\n")
		c, err := commands.CreateCommand(text)
		if err != nil {
			log.Println(err)
			continue
		}
		cmd <- c
	}
}

// Return a gui handle if not in debug mode. Quitting the GUI cancels the node.
func ListenOnInput(cmd chan commands.Command, debugMode bool, stop context.CancelFunc) *gocui.Gui {
	if debugMode {
		go ParseCommand(cmd)
		return nil
	}
	g, err := layout.CreateGui(cmd, "full_node/cmd/usage.txt")
	if err != nil {
		log.Fatalln(err)
	}
	go func() {
		err := g.MainLoop()
		g.Close()
		if err != nil && err != gocui.ErrQuit {
			log.Println(err)
		}
		stop()
	}()
	return g
}

// Render the last d+1 blocks as a table.
func chainTable(chain []*model.Block, d int) (string, error) {
	start := len(chain) - 1 - d
	if start < 0 {
		start = 0
	}
	data := pterm.TableData{{"Index", "Hash", "Previous", "Nonce", "Records"}}
	for _, b := range chain[start:] {
		data = append(data, []string{
			strconv.FormatInt(b.Index, 10), b.Hash, b.PrevHash,
			strconv.FormatInt(b.Nonce, 10), strconv.Itoa(len(b.Txs)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// Handle every console command until ctx is done. Mining commands run in their own
// goroutine so that the console stays responsive.
func HandleCommand(ctx context.Context, cmd chan commands.Command, server *full_node.FullNodeServer, logger *slog.Logger) {
	var stopMining context.CancelFunc
	for {
		var c commands.Command
		select {
		case <-ctx.Done():
			return
		case c = <-cmd:
		}
		switch c.Op {
		case commands.SUBMIT:
			_, err := server.SubmitTransaction(ctx, &service.SubmitTransactionRequest{
				Tx: model.Record{"author": c.Args[0], "content": c.Content()},
			})
			if err != nil {
				logger.Warn("submit failed", "err", err)
				continue
			}
			logger.Info("record added to the pending pool", "pending", len(server.FullNode().Pending()))
		case commands.MINE:
			go func() {
				res, err := server.TriggerMine(ctx)
				switch {
				case err != nil:
					logger.Warn("mining failed", "err", err)
				case !res.Mined:
					logger.Info("no transactions to mine")
				}
			}()
		case commands.START:
			if stopMining != nil {
				logger.Info("mining has already been started")
				continue
			}
			var mctx context.Context
			mctx, stopMining = context.WithCancel(ctx)
			go server.AutoMine(mctx, autoMineIdle)
			logger.Info("mining started")
		case commands.STOP:
			if stopMining == nil {
				logger.Info("no running mining task to be stopped")
				continue
			}
			stopMining()
			stopMining = nil
			logger.Info("mining stopped")
		case commands.ADD_PEER:
			added, err := server.AddPeer(c.Addr())
			if err != nil {
				logger.Warn("cannot add peer", "peer", c.Addr(), "err", err)
				continue
			}
			logger.Info("add peer", "peer", c.Addr(), "new", added)
		case commands.REGISTER_WITH:
			go func(addr string) {
				replaced, err := server.AddMutualConnection(ctx, addr)
				if err != nil {
					logger.Warn("cannot register with node", "node", addr, "err", err)
					return
				}
				logger.Info("registered with node", "node", addr, "chain_replaced", replaced)
			}(c.Addr())
		case commands.SYNC:
			go func() {
				replaced, err := server.Consensus(ctx)
				if err != nil {
					logger.Warn("consensus failed", "err", err)
					return
				}
				logger.Info("consensus done", "replaced", replaced, "height", server.FullNode().GetHeight())
			}()
		case commands.PENDING:
			logger.Info("pending records", "records", server.FullNode().Pending())
		case commands.LIST_PEER:
			logger.Info("peers", "peers", server.Peers().Addresses())
		case commands.SHOW:
			d, _ := strconv.Atoi(c.Args[0])
			table, err := chainTable(server.FullNode().Snapshot(), d)
			if err != nil {
				logger.Warn("cannot render chain", "err", err)
				continue
			}
			logger.Info("chain\n" + table)
		case commands.RENDER:
			d, _ := strconv.Atoi(c.Args[0])
			path, err := server.Render(d)
			if err != nil {
				logger.Warn("cannot render chain", "err", err)
				continue
			}
			logger.Info("chain rendered", "path", path)
		default:
			logger.Info("Unrecognized command", "op", c.Op)
		}
	}
}

func bootstrapPeers(c config.AppConfig) []string {
	addrs := append([]string{}, c.BOOTSTRAP_PEERS...)
	for _, p := range strings.Split(*peers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			addrs = append(addrs, p)
		}
	}
	return addrs
}

func serveMetrics(addr string, server *full_node.FullNodeServer, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", server.Metrics().Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	return srv
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", *configPath, err)
	}

	lis, err := net.Listen("tcp", net.JoinHostPort("", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A command channel that takes console commands and hands them to the node.
	cmd := make(chan commands.Command)
	g := ListenOnInput(cmd, *debugMode, stop)
	logger := layout.NewLogger(g, *verbose)
	slog.SetDefault(logger)

	addr := net.JoinHostPort(*host, *port)
	server, err := full_node.NewFullNodeServer(cfg, addr, full_node.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to create full node: %v", err)
	}
	defer server.Close()

	grpcServer := grpc.NewServer()
	service.RegisterFullNodeServiceServer(grpcServer, server)
	logger.Info("starting to serve", "addr", addr, "difficulty", cfg.DIFFICULTY, "id", server.ID())

	if cfg.METRICS_ADDR != "" {
		metricsServer := serveMetrics(cfg.METRICS_ADDR, server, logger)
		defer metricsServer.Close()
	}

	go func() {
		for _, p := range bootstrapPeers(cfg) {
			replaced, err := server.AddMutualConnection(ctx, p)
			if err != nil {
				logger.Warn("bootstrap failed", "node", p, "err", err)
				continue
			}
			logger.Info("bootstrapped from node", "node", p, "chain_replaced", replaced)
		}
	}()
	go server.RunConsensus(ctx)
	go HandleCommand(ctx, cmd, server, logger)
	go func() {
		<-ctx.Done()
		grpcServer.Stop()
	}()

	if err := grpcServer.Serve(lis); err != nil {
		logger.Error("grpc server stopped", "err", err)
	}
}
