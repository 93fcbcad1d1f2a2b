package astilecture

// Node types
const (
	ConceptNodeType   = "concept"
	DetailNodeType    = "detail"
	PredictedNodeType = "predicted"
	TopicNodeType     = "topic"
)

// Edge styles
const (
	DashedEdgeStyle = "dashed"
	SolidEdgeStyle  = "solid"
)

// Graph represents the evolving concept diagram of a lecture. Node ids are
// stable across evolutions so that clients can update in place.
type Graph struct {
	Edges []Edge `json:"edges"`
	Nodes []Node `json:"nodes"`
}

type Node struct {
	Bullets []string `json:"bullets"`
	Group   string   `json:"group"`
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
}

type Edge struct {
	From  string `json:"from"`
	Label string `json:"label"`
	Style string `json:"style"`
	To    string `json:"to"`
}

func NewGraph() Graph {
	return Graph{
		Edges: []Edge{},
		Nodes: []Node{},
	}
}

func (g Graph) Empty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}

// Clone returns a deep copy so that a snapshot can leave the session's
// serialized context safely.
func (g Graph) Clone() (o Graph) {
	// Create graph
	o = NewGraph()

	// Copy nodes
	for _, n := range g.Nodes {
		n.Bullets = append([]string{}, n.Bullets...)
		o.Nodes = append(o.Nodes, n)
	}

	// Copy edges
	o.Edges = append(o.Edges, g.Edges...)
	return
}
