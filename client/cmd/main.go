package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Luismorlan/pow_ledger/client"
	"github.com/Luismorlan/pow_ledger/commands"
	"github.com/Luismorlan/pow_ledger/layout"
	"github.com/jroimartin/gocui"
)

var (
	nodeAddr  *string
	debugMode *bool
	verbose   *bool
)

func init() {
	nodeAddr = flag.String("node", "", "full node to connect to on startup, host:port")
	debugMode = flag.Bool("debug_mode", false, "Using debug mode will disable fancy GUI.")
	verbose = flag.Bool("verbose", false, "print debug level logs")
}

// Return a gui handle if not in debug mode.
func ListenOnInput(cmd chan commands.ClientCommand, debugMode bool) *gocui.Gui {
	// Choose a fancy GUI
	if debugMode {
		go ParseCommand(cmd)
		return nil
	}
	g, err := layout.CreateGui(cmd, "client/cmd/usage.txt")
	if err != nil {
		log.Fatalln(err)
	}
	go func() {
		if err := g.MainLoop(); err != nil {
			if err == gocui.ErrQuit {
				g.Close()
				os.Exit(0)
			}
			os.Exit(1)
		}
	}()
	return g
}

func main() {
	flag.Parse()

	cmd := make(chan commands.ClientCommand)
	// Start listening on input.
	g := ListenOnInput(cmd, *debugMode)
	c := client.NewClient(layout.NewLogger(g, *verbose))
	if *nodeAddr != "" {
		if err := c.SetFullNodeConnection(*nodeAddr); err != nil {
			log.Fatalln(err)
		}
		c.Log("connected full node endpoint " + *nodeAddr)
	}

	HandleCommand(cmd, c)
}

// Parse command from stdio.
func ParseCommand(cmd chan commands.ClientCommand) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			os.Exit(0)
		}
		// convert CRLF to LF
		text = strings.TrimRight(text, "\r\n")
		c, err := commands.CreateClientCommand(text)
		if err != nil {
			log.Println(err)
			continue
		}
		cmd <- c
	}
}

func HandleCommand(cmd chan commands.ClientCommand, c *client.Client) {
	for {
		op := <-cmd
		switch op.Op {
		case commands.CONNECT:
			addr := op.Addr()
			if err := c.SetFullNodeConnection(addr); err != nil {
				c.Log("failed to connect to full node endpoint "+addr, "err", err)
				continue
			}
			c.Log("connected full node endpoint " + addr)
		case commands.SEND:
			if err := c.SendRecord(op.Args[0], op.Content()); err != nil {
				c.Log("fail to send record", "err", err)
				continue
			}
			c.Log("successfully sent record to full node", "author", op.Args[0])
		case commands.ASK_MINE:
			// Mining may take a while, do not block other commands.
			go func() {
				res, err := c.AskMine()
				switch {
				case err != nil:
					c.Log("fail to mine", "err", err)
				case !res.Mined:
					c.Log("no transactions to mine")
				case res.Superseded:
					c.Log("mined block was superseded by a longer chain", "index", res.Index)
				default:
					c.Log("mined block", "index", res.Index)
				}
			}()
		case commands.CHAIN:
			depth := 5
			if len(op.Args) == 1 {
				depth, _ = strconv.Atoi(op.Args[0])
			}
			res, err := c.GetChain()
			if err != nil {
				c.Log("fail to get chain", "err", err)
				continue
			}
			c.Log(fmt.Sprintf("chain length %d, peers %v\n%s", res.Length, res.Peers, client.FormatChain(res.Chain, depth)))
		case commands.GET_PENDING:
			txs, err := c.GetPending()
			if err != nil {
				c.Log("fail to get pending records", "err", err)
				continue
			}
			c.Log(fmt.Sprintf("%d pending records", len(txs)), "records", txs)
		case commands.BOOTSTRAP:
			replaced, err := c.Bootstrap(op.Addr())
			if err != nil {
				c.Log("fail to bootstrap", "err", err)
				continue
			}
			c.Log("node registered with "+op.Addr(), "chain_replaced", replaced)
		default:
			c.Log(fmt.Sprintf("Unimplemented command: %d", op.Op))
		}
	}
}
