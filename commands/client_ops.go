package commands

import (
	"errors"
	"strings"
)

const (
	// do nothing operation
	NOOP = iota
	// Connect a full node with ip address and port
	CONNECT
	// Submit a record to the connected full node
	SEND
	// Ask the connected full node to mine its pending records
	ASK_MINE
	// Print the chain of the connected full node
	CHAIN
	// Print the pending records of the connected full node
	GET_PENDING
	// Ask the connected full node to register with another node
	BOOTSTRAP
)

type ClientCommand struct {
	Op   Operation
	Args []string
}

func (c ClientCommand) IsValid() bool {
	switch c.Op {
	case SEND:
		return len(c.Args) >= 2
	case ASK_MINE, GET_PENDING:
		return len(c.Args) == 0
	case CHAIN:
		return len(c.Args) == 0 || (len(c.Args) == 1 && isDepth(c.Args[0]))
	case CONNECT, BOOTSTRAP:
		if len(c.Args) != 2 {
			return false
		}
		return IsValidAddr(c.Args[0], c.Args[1])
	default:
		return false
	}
}

func (c ClientCommand) Addr() string {
	return Command{Args: c.Args}.Addr()
}

func (c ClientCommand) Content() string {
	return Command{Args: c.Args}.Content()
}

func CreateClientCommand(s string) (ClientCommand, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return ClientCommand{}, errors.New("command is empty")
	}
	cmd := ClientCommand{}
	switch ss[0] {
	case "connect":
		cmd.Op = CONNECT
	case "send":
		cmd.Op = SEND
	case "mine":
		cmd.Op = ASK_MINE
	case "chain":
		cmd.Op = CHAIN
	case "pending":
		cmd.Op = GET_PENDING
	case "bootstrap":
		cmd.Op = BOOTSTRAP
	default:
		cmd.Op = NOOP
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return ClientCommand{}, errors.New("invalid command")
	}
	return cmd, nil
}
