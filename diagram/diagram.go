package diagram

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/asticode/go-astilecture"
	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// Model is a prompt-in/text-out completion.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const transcriptTail = 8000

// Service asks a model to evolve the lecture graph. The raw model output is
// parsed and normalized before it's handed back: a malformed response is an
// error, never a partial graph.
type Service struct {
	ms []Model
}

func New(ms ...Model) *Service {
	return &Service{ms: ms}
}

func (s *Service) Diagram(ctx context.Context, fullTranscript string, previous astilecture.Graph) (g astilecture.Graph, err error) {
	// Build prompt
	prompt := buildPrompt(fullTranscript, previous)

	// Try models in order
	for _, m := range s.ms {
		// Complete
		var text string
		if text, err = m.Complete(ctx, prompt); err != nil {
			astilog.Error(errors.Wrap(err, "diagram: completing failed"))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		// Parse
		if g, err = Parse(text); err != nil {
			astilog.Error(errors.Wrap(err, "diagram: parsing response failed"))
			continue
		}
		return
	}
	err = errors.New("diagram: no model produced a graph")
	return
}

func buildPrompt(fullTranscript string, previous astilecture.Graph) string {
	// Cap transcript to its tail
	t := fullTranscript
	if len(t) > transcriptTail {
		t = t[len(t)-transcriptTail:]
	}
	if t == "" {
		t = "(empty — no content yet)"
	}

	// Serialize previous graph
	prev := "(none yet — create initial diagram from transcript)"
	if !previous.Empty() {
		if b, err := json.Marshal(previous); err == nil {
			prev = string(b)
		}
	}

	return strings.Join([]string{
		"You are a visual note-taking assistant for a live lecture. Your job is to analyze the transcript and produce a structured diagram (mind map / flowchart) as JSON.",
		"",
		"OUTPUT FORMAT — return ONLY valid JSON in this exact shape (no markdown, no code fence, no explanation):",
		`{"nodes":[{"id":"unique_id","label":"Short Title","bullets":["point 1"],"type":"topic|concept|detail|predicted","group":""}],"edges":[{"from":"id1","to":"id2","label":"relationship","style":"solid|dashed"}]}`,
		"",
		"NODE TYPES:",
		"- topic: Major lecture heading or theme (use for section titles).",
		"- concept: Key idea, step in a process, or important term.",
		"- detail: Supporting example, sub-point, or bullet note (smaller emphasis).",
		"- predicted: Content you infer is coming next; use when the teacher's pattern suggests more (e.g. \"first... second...\" implies \"third...\"). Use dashed edges to predicted nodes.",
		"",
		"RULES:",
		"1. Decide what is RELEVANT from the transcript — ignore filler, repetition, and off-topic chatter.",
		"2. Put bullet points inside nodes when a concept has sub-points: use the \"bullets\" array with short strings.",
		"3. When you can infer where the lecture is heading, add \"predicted\" nodes and connect with edges where style is \"dashed\".",
		"4. When structure is clear but data is missing (e.g. \"we've seen three of five steps\"), add placeholder nodes with label like \"Step 4 (pending)\" or \"Next topic?\" and type \"predicted\".",
		"5. EVOLVE the previous graph: add, update, or remove nodes. Reuse existing node ids when updating. Do not rebuild from scratch unless the transcript has completely changed topic.",
		"6. Choose the best structure for the content: flowchart for processes, tree for hierarchies, mind map for themes.",
		"7. Cap at about 20 nodes for readability. Prefer merging old detail nodes into concepts when the graph grows.",
		"8. Every edge must reference existing node ids. \"from\" and \"to\" are node ids.",
		"",
		"PREVIOUS DIAGRAM (evolve this):",
		prev,
		"",
		"TRANSCRIPT:",
		t,
		"",
		"Return only the JSON object, no other text.",
	}, "\n")
}
