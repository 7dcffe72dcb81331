package full_node

// NodeState is where the node is in the mine, reconcile, announce cycle.
type NodeState int32

const (
	Idle NodeState = iota
	// Searching for a proof over the pending records.
	Mining
	// Asking peers for longer chains before announcing the mined block.
	Reconciling
)

func (s NodeState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Mining:
		return "mining"
	case Reconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}
