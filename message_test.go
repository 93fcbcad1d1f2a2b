package astilecture

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	from := Identifier{Type: IndexIdentifierType}
	name := "class-1"
	to := &Identifier{Name: &name, Type: ClassIdentifierType}

	// Chat
	m, err := NewEventChatMessage(from, to, Chat{FromTeacher: true, ID: "1", Role: TeacherRole, Text: "Why?"})
	assert.NoError(t, err)
	assert.Equal(t, EventChatMessage, m.Name)
	c, err := ParseEventChatPayload(m)
	assert.NoError(t, err)
	assert.Equal(t, "Why?", c.Text)

	// Parsing the wrong name fails
	_, err = ParseEventTranscriptPayload(m)
	assert.Error(t, err)

	// Audio segment survives a wire round trip
	m, err = NewCmdAudioSegmentMessage(Identifier{Type: ClassIdentifierType}, nil, AudioSegment{Data: []byte{1, 2, 3}, MimeType: "audio/wav"})
	assert.NoError(t, err)
	b, err := json.Marshal(m)
	assert.NoError(t, err)
	var o Message
	assert.NoError(t, json.Unmarshal(b, &o))
	s, err := ParseCmdAudioSegmentPayload(&o)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, s.Data)
	assert.Equal(t, "audio/wav", s.MimeType)
}

func TestGraphClone(t *testing.T) {
	g := NewGraph()
	g.Nodes = append(g.Nodes, Node{Bullets: []string{"b"}, ID: "a", Label: "A", Type: TopicNodeType})
	g.Edges = append(g.Edges, Edge{From: "a", Style: SolidEdgeStyle, To: "a"})

	// Mutating the clone leaves the original untouched
	o := g.Clone()
	o.Nodes[0].Bullets[0] = "changed"
	o.Nodes = append(o.Nodes, Node{ID: "b"})
	assert.Equal(t, "b", g.Nodes[0].Bullets[0])
	assert.Len(t, g.Nodes, 1)
}
