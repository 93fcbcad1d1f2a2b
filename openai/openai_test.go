package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		rw.Write([]byte(`{"choices":[{"message":{"content":" • It moves along the gradient. "}}]}`))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	text, err := c.Complete(context.Background(), ChatModel, "system", "user", 300)
	assert.NoError(t, err)
	assert.Equal(t, "• It moves along the gradient.", text)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusUnauthorized)
		rw.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "bad", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "", "", "user", 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, TranscriptionModel, r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		f, h, err := r.FormFile("file")
		assert.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "segment.wav", h.Filename)
		rw.Write([]byte(`{"text":" hello class "}`))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	text, err := c.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/wav")
	assert.NoError(t, err)
	assert.Equal(t, "hello class", text)
}

func TestTranscribeInvalidFormatIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte(`{"error":{"message":"Invalid file format."}}`))
	}))
	defer srv.Close()

	c := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	text, err := c.Transcribe(context.Background(), []byte{1}, "audio/wav")
	assert.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestSegmentFilename(t *testing.T) {
	assert.Equal(t, "segment.webm", segmentFilename("audio/webm;codecs=opus"))
	assert.Equal(t, "segment.ogg", segmentFilename("audio/ogg"))
	assert.Equal(t, "segment.wav", segmentFilename("audio/wav"))
}
