package commands

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
)

type Operation int

const PORT_REGEX = "^[0-9]{2,5}$"

var portRegex = regexp.MustCompile(PORT_REGEX)

const (
	DEFAULT = iota
	// Submit a record with an author and a content.
	SUBMIT
	// Mine the pending records once.
	MINE
	// Start mining, infinite loop until explicit stop.
	START
	// Stop mining completely.
	STOP
	// Add a new peer to this full node.
	ADD_PEER
	// Register this node with another node and sync with it.
	REGISTER_WITH
	// Run one consensus pass against all peers.
	SYNC
	// List the pending records.
	PENDING
	// List all peers.
	LIST_PEER
	// Show the last blocks of the blockchain.
	SHOW
	// Render the last blocks of the blockchain to a graph.
	RENDER
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

// IsValidAddr reports whether host and port form a dialable address.
func IsValidAddr(host string, port string) bool {
	if !portRegex.MatchString(port) {
		return false
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return false
	}
	return host == "localhost" || net.ParseIP(host) != nil
}

func isDepth(s string) bool {
	d, err := strconv.Atoi(s)
	return err == nil && d >= 0
}

func (c Command) IsValid() bool {
	switch c.Op {
	case MINE, START, STOP, SYNC, PENDING, LIST_PEER:
		return len(c.Args) == 0
	case SUBMIT:
		// The content is everything after the author, it may contain spaces.
		return len(c.Args) >= 2
	case ADD_PEER, REGISTER_WITH:
		if len(c.Args) != 2 {
			return false
		}
		return IsValidAddr(c.Args[0], c.Args[1])
	case SHOW, RENDER:
		if len(c.Args) != 1 {
			return false
		}
		// depth must be a number.
		return isDepth(c.Args[0])
	default:
		return false
	}
}

// Addr joins the host and port arguments of an ADD_PEER or REGISTER_WITH command.
func (c Command) Addr() string {
	return net.JoinHostPort(c.Args[0], c.Args[1])
}

// Content joins the content words of a SUBMIT command.
func (c Command) Content() string {
	return strings.Join(c.Args[1:], " ")
}

// From string, create a command.
func CreateCommand(s string) (Command, error) {
	// split command by space.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "submit":
		cmd.Op = SUBMIT
	case "mine":
		cmd.Op = MINE
	case "start":
		cmd.Op = START
	case "stop":
		cmd.Op = STOP
	case "add_peer":
		cmd.Op = ADD_PEER
	case "register_with":
		cmd.Op = REGISTER_WITH
	case "sync":
		cmd.Op = SYNC
	case "pending":
		cmd.Op = PENDING
	case "list_peer":
		cmd.Op = LIST_PEER
	case "show":
		cmd.Op = SHOW
	case "render":
		cmd.Op = RENDER
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command")
	}
	return cmd, nil
}

// Create a brand new command with default operation.
func NewDefaultCommand() Command {
	return Command{
		Op: DEFAULT,
	}
}

func (c Command) IsDefault() bool {
	return c.Op == DEFAULT
}
