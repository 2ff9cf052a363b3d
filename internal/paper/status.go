package paper

// Status is the lifecycle state of a paper position.
type Status string

// Position statuses. A simulated fill ends in OPEN, MISSED or EDGE_LOST;
// CLOSED is set later by the portfolio layer.
const (
	StatusPending  Status = "PENDING"
	StatusOpen     Status = "OPEN"
	StatusMissed   Status = "MISSED"
	StatusEdgeLost Status = "EDGE_LOST"
	StatusClosed   Status = "CLOSED"
)

// StatusDescription returns a human-readable description of a fill status.
func StatusDescription(status Status) string {
	switch status {
	case StatusOpen:
		return "Position opened successfully"
	case StatusMissed:
		return "Fill missed due to timing"
	case StatusEdgeLost:
		return "Edge lost due to odds movement"
	default:
		return "Unknown status"
	}
}
