package graph

// Node types produced by the connectors. Anything else is carried as-is;
// the type only drives grouping and visual encoding.
const (
	TypeService  = "service"
	TypeDatabase = "database"
	TypeCache    = "cache"
	TypeTeam     = "team"
)

// Edge relationship types
const (
	EdgeCalls     = "calls"
	EdgeReadsFrom = "reads_from"
	EdgeUses      = "uses"
	EdgeOwns      = "owns"
)

// Node is a single entity in the knowledge graph. Properties carries
// source-specific attributes (team, oncall, port, lead, slack_channel, ...)
// opaquely; consumers only check for presence.
type Node struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Property returns a named property and whether it was present.
func (n *Node) Property(key string) (interface{}, bool) {
	if n.Properties == nil {
		return nil, false
	}
	v, ok := n.Properties[key]
	return v, ok
}

// Edge is a directed relationship between two nodes, referenced by id.
type Edge struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Source     string                 `json:"source"`
	Target     string                 `json:"target"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Stats summarizes the loaded graph
type Stats struct {
	TotalNodes  int            `json:"total_nodes"`
	TotalEdges  int            `json:"total_edges"`
	NodesByType map[string]int `json:"nodes_by_type"`
}
