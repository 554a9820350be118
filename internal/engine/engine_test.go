package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kinechobot/kinecho/internal/engine"
	"github.com/kinechobot/kinecho/internal/provider"
	"github.com/kinechobot/kinecho/memory"
)

type capture struct {
	method string
	url    string
	body   []byte
}

type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if f.captured != nil {
		f.captured.method = req.Method
		f.captured.url = req.URL.String()
		f.captured.body = b
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newClientWithTransport(rt http.RoundTripper) *anthropic.Client {
	c := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &c
}

func testOptions() engine.Options {
	return engine.Options{
		Model:        provider.DefaultModel,
		MaxTokens:    256,
		SystemPrompt: "You are a test bot.",
		Window:       memory.DefaultWindow,
	}
}

type reqBody struct {
	System []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
	} `json:"messages"`
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.Load(filepath.Join(t.TempDir(), "mem.json"))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return s
}

func TestRespond_SendsWindowAndPersistsTurns(t *testing.T) {
	store := newStore(t)
	if err := store.Append("c1", memory.SpeakerUser, "earlier question"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Append("c1", memory.SpeakerAgent, "earlier answer"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	capReq := &capture{}
	fake := &fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"role":"assistant","content":[{"type":"text","text":"fresh answer"}]}`),
		captured:   capReq,
	}
	e := engine.New(newClientWithTransport(fake), store, testOptions)

	reply, err := e.Respond(context.Background(), "c1", "new question")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply != "fresh answer" {
		t.Fatalf("reply mismatch: %q", reply)
	}

	var rb reqBody
	if err := json.Unmarshal(capReq.body, &rb); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(rb.System) != 1 || rb.System[0].Text != "You are a test bot." {
		t.Fatalf("system prompt mismatch: %+v", rb.System)
	}
	if len(rb.Messages) != 3 {
		t.Fatalf("expected history + new message, got %d messages", len(rb.Messages))
	}
	if rb.Messages[0].Role != "user" || rb.Messages[0].Content[0].Text != "earlier question" {
		t.Fatalf("first message mismatch: %+v", rb.Messages[0])
	}
	if rb.Messages[2].Role != "user" || rb.Messages[2].Content[0].Text != "new question" {
		t.Fatalf("last message mismatch: %+v", rb.Messages[2])
	}

	// Both sides of the exchange are stored, newest last.
	turns := store.Context("c1", memory.MaxTurns)
	if len(turns) != 4 {
		t.Fatalf("expected 4 stored turns, got %d", len(turns))
	}
	if turns[2].Speaker != memory.SpeakerUser || turns[2].Text != "new question" {
		t.Fatalf("stored user turn mismatch: %+v", turns[2])
	}
	if turns[3].Speaker != memory.SpeakerAgent || turns[3].Text != "fresh answer" {
		t.Fatalf("stored agent turn mismatch: %+v", turns[3])
	}
}

func TestRespond_APIFailure_ReturnsErrorAndStoresNothing(t *testing.T) {
	store := newStore(t)
	fake := &fakeTransport{respStatus: 500, respBody: []byte(`{"error":{"type":"api_error","message":"boom"}}`)}
	e := engine.New(newClientWithTransport(fake), store, testOptions)

	_, err := e.Respond(context.Background(), "c1", "hello?")
	if err == nil {
		t.Fatal("expected error from failed completion")
	}
	if n := store.Len("c1"); n != 0 {
		t.Fatalf("failed exchange must not be stored, got %d turns", n)
	}
}

func TestRespond_EmptyKey_Rejected(t *testing.T) {
	store := newStore(t)
	fake := &fakeTransport{respStatus: 200, respBody: []byte(`{"role":"assistant","content":[]}`)}
	e := engine.New(newClientWithTransport(fake), store, testOptions)

	if _, err := e.Respond(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for empty conversation key")
	}
}

func TestRespond_UnknownKey_StartsFreshConversation(t *testing.T) {
	store := newStore(t)
	capReq := &capture{}
	fake := &fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"role":"assistant","content":[{"type":"text","text":"hi"}]}`),
		captured:   capReq,
	}
	e := engine.New(newClientWithTransport(fake), store, testOptions)

	if _, err := e.Respond(context.Background(), "brand-new", "hello"); err != nil {
		t.Fatalf("respond: %v", err)
	}

	var rb reqBody
	if err := json.Unmarshal(capReq.body, &rb); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(rb.Messages) != 1 {
		t.Fatalf("expected only the new message for an unseen key, got %d", len(rb.Messages))
	}
	if store.Len("brand-new") != 2 {
		t.Fatalf("expected lazily created conversation with 2 turns, got %d", store.Len("brand-new"))
	}
}
