package astilecture

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Identifier types
const (
	ClassIdentifierType = "class"
	IndexIdentifierType = "index"
)

// Message names
const (
	CmdAudioSegmentMessage    = "cmd.audio.segment"
	CmdStudentQuestionMessage = "cmd.student.question"
	EventChatMessage          = "event.chat.message"
	EventClassWelcomeMessage  = "event.class.welcome"
	EventDiagramUpdateMessage = "event.diagram.update"
	EventTranscriptMessage    = "event.transcript"
)

// Chat roles
const (
	AssistantRole = "assistant"
	StudentRole   = "student"
	TeacherRole   = "teacher"
)

type Message struct {
	From    Identifier      `json:"from"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	To      *Identifier     `json:"to,omitempty"`
}

type Identifier struct {
	Name *string `json:"name,omitempty"`
	Type string  `json:"type"`
}

type AudioSegment struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

type StudentQuestion struct {
	Text string `json:"text"`
}

type Transcript struct {
	Text string `json:"text"`
}

type Chat struct {
	FromTeacher bool   `json:"from_teacher"`
	ID          string `json:"id"`
	Role        string `json:"role"`
	Text        string `json:"text"`
}

func NewMessage() *Message {
	return &Message{}
}

func newMessage(from Identifier, to *Identifier, name string) *Message {
	m := NewMessage()
	m.From = from
	m.Name = name
	m.To = to
	return m
}

func NewCmdAudioSegmentMessage(from Identifier, to *Identifier, s AudioSegment) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, CmdAudioSegmentMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(s); err != nil {
		err = errors.Wrap(err, "astilecture: marshaling payload failed")
		return
	}
	return
}

func ParseCmdAudioSegmentPayload(m *Message) (s AudioSegment, err error) {
	// Check name
	if m.Name != CmdAudioSegmentMessage {
		err = fmt.Errorf("astilecture: invalid name %s, requested %s", m.Name, CmdAudioSegmentMessage)
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &s); err != nil {
		err = errors.Wrap(err, "astilecture: unmarshaling failed")
	}
	return
}

func NewCmdStudentQuestionMessage(from Identifier, to *Identifier, q StudentQuestion) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, CmdStudentQuestionMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(q); err != nil {
		err = errors.Wrap(err, "astilecture: marshaling payload failed")
		return
	}
	return
}

func ParseCmdStudentQuestionPayload(m *Message) (q StudentQuestion, err error) {
	// Check name
	if m.Name != CmdStudentQuestionMessage {
		err = fmt.Errorf("astilecture: invalid name %s, requested %s", m.Name, CmdStudentQuestionMessage)
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &q); err != nil {
		err = errors.Wrap(err, "astilecture: unmarshaling failed")
	}
	return
}

func NewEventTranscriptMessage(from Identifier, to *Identifier, t Transcript) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventTranscriptMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(t); err != nil {
		err = errors.Wrap(err, "astilecture: marshaling payload failed")
		return
	}
	return
}

func ParseEventTranscriptPayload(m *Message) (t Transcript, err error) {
	// Check name
	if m.Name != EventTranscriptMessage {
		err = fmt.Errorf("astilecture: invalid name %s, requested %s", m.Name, EventTranscriptMessage)
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &t); err != nil {
		err = errors.Wrap(err, "astilecture: unmarshaling failed")
	}
	return
}

func NewEventChatMessage(from Identifier, to *Identifier, c Chat) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventChatMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(c); err != nil {
		err = errors.Wrap(err, "astilecture: marshaling payload failed")
		return
	}
	return
}

func ParseEventChatPayload(m *Message) (c Chat, err error) {
	// Check name
	if m.Name != EventChatMessage {
		err = fmt.Errorf("astilecture: invalid name %s, requested %s", m.Name, EventChatMessage)
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &c); err != nil {
		err = errors.Wrap(err, "astilecture: unmarshaling failed")
	}
	return
}

func NewEventDiagramUpdateMessage(from Identifier, to *Identifier, g Graph) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventDiagramUpdateMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(g); err != nil {
		err = errors.Wrap(err, "astilecture: marshaling payload failed")
		return
	}
	return
}

func ParseEventDiagramUpdatePayload(m *Message) (g Graph, err error) {
	// Check name
	if m.Name != EventDiagramUpdateMessage {
		err = fmt.Errorf("astilecture: invalid name %s, requested %s", m.Name, EventDiagramUpdateMessage)
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &g); err != nil {
		err = errors.Wrap(err, "astilecture: unmarshaling failed")
	}
	return
}

func NewEventClassWelcomeMessage(from Identifier, to *Identifier, name string) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventClassWelcomeMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(name); err != nil {
		err = errors.Wrap(err, "astilecture: marshaling payload failed")
		return
	}
	return
}

func ParseEventClassWelcomePayload(m *Message) (name string, err error) {
	// Check name
	if m.Name != EventClassWelcomeMessage {
		err = fmt.Errorf("astilecture: invalid name %s, requested %s", m.Name, EventClassWelcomeMessage)
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &name); err != nil {
		err = errors.Wrap(err, "astilecture: unmarshaling failed")
	}
	return
}
