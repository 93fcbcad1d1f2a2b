package diagram

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/asticode/go-astilecture"
	"github.com/pkg/errors"
)

var codeFenceRegexp = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

var nodeTypes = map[string]bool{
	astilecture.ConceptNodeType:   true,
	astilecture.DetailNodeType:    true,
	astilecture.PredictedNodeType: true,
	astilecture.TopicNodeType:     true,
}

// looseString tolerates models returning numbers where strings are expected.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) (err error) {
	// Null
	if string(b) == "null" {
		*s = ""
		return
	}

	// String
	var v string
	if err = json.Unmarshal(b, &v); err == nil {
		*s = looseString(v)
		return
	}

	// Number
	var n float64
	if err = json.Unmarshal(b, &n); err != nil {
		err = errors.Wrap(err, "diagram: unmarshaling loose string failed")
		return
	}
	*s = looseString(strconv.FormatFloat(n, 'f', -1, 64))
	return
}

type rawGraph struct {
	Edges []rawEdge `json:"edges"`
	Nodes []rawNode `json:"nodes"`
}

type rawNode struct {
	Bullets []looseString `json:"bullets"`
	Group   looseString   `json:"group"`
	ID      looseString   `json:"id"`
	Label   looseString   `json:"label"`
	Type    looseString   `json:"type"`
}

type rawEdge struct {
	From   looseString `json:"from"`
	Label  looseString `json:"label"`
	Source looseString `json:"source"`
	Style  looseString `json:"style"`
	Target looseString `json:"target"`
	To     looseString `json:"to"`
}

// Parse turns a raw model response into a normalized graph: code fences are
// stripped, unknown node types are coerced to concept and edges referencing
// unknown node ids are dropped.
func Parse(text string) (g astilecture.Graph, err error) {
	// Strip code fence
	raw := strings.TrimSpace(text)
	if m := codeFenceRegexp.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}

	// Unmarshal
	var r rawGraph
	if err = json.Unmarshal([]byte(raw), &r); err != nil {
		err = errors.Wrap(err, "diagram: unmarshaling graph failed")
		return
	}

	// Normalize nodes
	g = astilecture.NewGraph()
	ids := make(map[string]bool)
	for _, n := range r.Nodes {
		// Empty or duplicate id
		id := string(n.ID)
		if id == "" || ids[id] {
			continue
		}
		ids[id] = true

		// Coerce type
		t := string(n.Type)
		if !nodeTypes[t] {
			t = astilecture.ConceptNodeType
		}

		// Bullets
		bullets := []string{}
		for _, b := range n.Bullets {
			bullets = append(bullets, string(b))
		}

		// Append
		g.Nodes = append(g.Nodes, astilecture.Node{
			Bullets: bullets,
			Group:   string(n.Group),
			ID:      id,
			Label:   string(n.Label),
			Type:    t,
		})
	}

	// Normalize edges
	for _, e := range r.Edges {
		// Source/target aliases
		from := string(e.From)
		if from == "" {
			from = string(e.Source)
		}
		to := string(e.To)
		if to == "" {
			to = string(e.Target)
		}

		// Dangling reference
		if !ids[from] || !ids[to] {
			continue
		}

		// Style
		style := astilecture.SolidEdgeStyle
		if string(e.Style) == astilecture.DashedEdgeStyle {
			style = astilecture.DashedEdgeStyle
		}

		// Append
		g.Edges = append(g.Edges, astilecture.Edge{
			From:  from,
			Label: string(e.Label),
			Style: style,
			To:    to,
		})
	}
	return
}
