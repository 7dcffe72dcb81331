package full_node

import (
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Luismorlan/pow_ledger/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Peer struct {
	// A service client established to connect to other full node.
	client service.FullNodeServiceClient
	// Peer address, host:port.
	addr string
	// Closes the underlying connection, may be nil.
	conn io.Closer
}

// Stringer function of peer.
func (p Peer) String() string {
	return p.addr
}

// Dialer opens a client to the node at addr.
type Dialer func(addr string) (service.FullNodeServiceClient, io.Closer, error)

// GrpcDialer connects to the peer's gRPC endpoint. The connection is established lazily,
// an unreachable peer only fails the calls made to it.
func GrpcDialer(addr string) (service.FullNodeServiceClient, io.Closer, error) {
	conn, err := grpc.Dial(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(service.CodecName)),
	)
	if err != nil {
		return nil, nil, err
	}
	return service.NewFullNodeServiceClient(conn), conn, nil
}

// PeerSet is the deduplicated set of peers known to the node.
type PeerSet struct {
	// Create a mutex protect peers addition and deletion.
	pm    sync.RWMutex
	peers map[string]Peer
	dial  Dialer
}

func NewPeerSet(dial Dialer) *PeerSet {
	return &PeerSet{
		peers: make(map[string]Peer),
		dial:  dial,
	}
}

// NormalizeAddr trims the scheme and trailing slash the original HTTP nodes used.
func NormalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	return strings.TrimSuffix(addr, "/")
}

// Add a peer. Adding a known peer is a no-op, the returned bool tells whether the peer
// was new.
func (ps *PeerSet) Add(addr string) (bool, error) {
	addr = NormalizeAddr(addr)
	if addr == "" {
		return false, errors.New("peer address is empty")
	}
	ps.pm.RLock()
	_, exist := ps.peers[addr]
	ps.pm.RUnlock()
	if exist {
		return false, nil
	}

	client, conn, err := ps.dial(addr)
	if err != nil {
		return false, err
	}

	ps.pm.Lock()
	defer ps.pm.Unlock()
	if _, exist := ps.peers[addr]; exist {
		// Lost the race against a concurrent Add of the same address.
		if conn != nil {
			conn.Close()
		}
		return false, nil
	}
	ps.peers[addr] = Peer{client: client, addr: addr, conn: conn}
	return true, nil
}

// Remove a peer from the peer set.
func (ps *PeerSet) Remove(addr string) {
	ps.pm.Lock()
	defer ps.pm.Unlock()
	p, ok := ps.peers[NormalizeAddr(addr)]
	if !ok {
		return
	}
	if p.conn != nil {
		p.conn.Close()
	}
	delete(ps.peers, p.addr)
}

func (ps *PeerSet) Get(addr string) (Peer, bool) {
	ps.pm.RLock()
	defer ps.pm.RUnlock()
	p, ok := ps.peers[NormalizeAddr(addr)]
	return p, ok
}

// Return all current peers ordered by address.
func (ps *PeerSet) GetAllPeers() []Peer {
	ps.pm.RLock()
	defer ps.pm.RUnlock()
	peers := make([]Peer, 0, len(ps.peers))
	for _, p := range ps.peers {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].addr < peers[j].addr })
	return peers
}

// Addresses returns the sorted peer addresses.
func (ps *PeerSet) Addresses() []string {
	peers := ps.GetAllPeers()
	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		addrs = append(addrs, p.addr)
	}
	return addrs
}

func (ps *PeerSet) Len() int {
	ps.pm.RLock()
	defer ps.pm.RUnlock()
	return len(ps.peers)
}

// Close every connection.
func (ps *PeerSet) Close() {
	ps.pm.Lock()
	defer ps.pm.Unlock()
	for addr, p := range ps.peers {
		if p.conn != nil {
			p.conn.Close()
		}
		delete(ps.peers, addr)
	}
}
