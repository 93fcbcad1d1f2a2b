package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends an audio segment to Whisper and returns the transcribed
// text. Segments occasionally get rejected as invalid format even though
// their siblings succeed: those are soft failures that return empty text.
func (c *Client) Transcribe(ctx context.Context, data []byte, mimeType string) (text string, err error) {
	// Create form
	b := &bytes.Buffer{}
	w := multipart.NewWriter(b)

	// Write file
	var fw io.Writer
	if fw, err = w.CreateFormFile("file", segmentFilename(mimeType)); err != nil {
		err = errors.Wrap(err, "openai: creating form file failed")
		return
	}
	if _, err = fw.Write(data); err != nil {
		err = errors.Wrap(err, "openai: writing form file failed")
		return
	}

	// Write fields
	if err = w.WriteField("model", TranscriptionModel); err != nil {
		err = errors.Wrap(err, "openai: writing model field failed")
		return
	}
	if err = w.WriteField("language", "en"); err != nil {
		err = errors.Wrap(err, "openai: writing language field failed")
		return
	}

	// Close form
	if err = w.Close(); err != nil {
		err = errors.Wrap(err, "openai: closing form failed")
		return
	}

	// Create request
	var req *http.Request
	if req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.o.BaseURL+"/audio/transcriptions", b); err != nil {
		err = errors.Wrap(err, "openai: creating request failed")
		return
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	// Send request
	var body []byte
	if body, err = c.do(req); err != nil {
		// Soft failure: treat format rejections as empty output
		if strings.Contains(err.Error(), "Invalid file format") {
			astilog.Warn("openai: whisper rejected a segment as invalid format")
			err = nil
			return
		}
		err = errors.Wrap(err, "openai: doing request failed")
		return
	}

	// Unmarshal response
	var resp transcriptionResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		err = errors.Wrap(err, "openai: unmarshaling response failed")
		return
	}
	text = strings.TrimSpace(resp.Text)
	return
}

func segmentFilename(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "webm"):
		return "segment.webm"
	case strings.Contains(mimeType, "ogg"):
		return "segment.ogg"
	default:
		return "segment.wav"
	}
}
