package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"adforge/internal/domain"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:            "test-key",
		BaseURL:           url,
		VideoPollInterval: time.Millisecond,
		VideoPollAttempts: 3,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerateTextCollectsParts(t *testing.T) {
	var captured geminiGenerateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := geminiGenerateContentResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Parts: []geminiPart{{Text: `{"headline":`}, {Text: `"Go"}`}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.GenerateText(context.Background(), TextRequest{System: "be brief", Prompt: "write copy"})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != `{"headline":"Go"}` {
		t.Fatalf("text = %q", text)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "be brief" {
		t.Fatalf("system instruction not forwarded: %+v", captured.SystemInstruction)
	}
}

func TestGenerateImageAttachesSourcesBeforePrompt(t *testing.T) {
	var captured geminiGenerateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		resp := geminiGenerateContentResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Parts: []geminiPart{{InlineData: &geminiInlineData{
				MimeType: "image/png",
				Data:     base64.StdEncoding.EncodeToString([]byte("generated")),
			}}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	asset, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt: "blend these",
		Sources: []SourceImage{
			{Data: []byte("one"), MIME: "image/jpeg"},
			{Data: []byte("two"), MIME: "image/png"},
		},
		AspectRatio: "16:9",
	})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(asset.Data) != "generated" {
		t.Fatalf("asset data = %q", asset.Data)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("first part should be the first source, got %+v", parts[0])
	}
	if parts[2].Text != "blend these" {
		t.Fatalf("prompt should follow sources, got %+v", parts[2])
	}
}

func TestGenerateImageNoContentIsGenerationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiGenerateContentResponse{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestInvokeGeminiStatusErrorIsProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 503, "message": "overloaded"}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GenerateText(context.Background(), TextRequest{Prompt: "x"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected ErrProviderFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("error should carry the api message, got %v", err)
	}
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	var polls int
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/models/veo-3.1-generate-preview:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1"})
	})
	mux.HandleFunc("/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-1",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{{"video": map[string]any{"uri": server.URL + "/files/clip.mp4"}}},
				},
			},
		})
	})
	mux.HandleFunc("/files/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("clip-bytes"))
	})

	client := newTestClient(t, server.URL)
	asset, err := client.GenerateVideo(context.Background(), VideoRequest{Prompt: "waves", AspectRatio: "16:9", DurationSeconds: 8})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if string(asset.Data) != "clip-bytes" {
		t.Fatalf("asset data = %q", asset.Data)
	}
	if polls != 2 {
		t.Fatalf("polls = %d", polls)
	}
}

func TestGenerateVideoTimesOutAfterBudget(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/models/veo-3.1-generate-preview:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2"})
	})
	mux.HandleFunc("/operations/op-2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2", "done": false})
	})

	client := newTestClient(t, server.URL)
	_, err := client.GenerateVideo(context.Background(), VideoRequest{Prompt: "waves", AspectRatio: "9:16"})
	if !errors.Is(err, domain.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}
}

func TestSyntheticAssetsWithoutKey(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.HasCredentials() {
		t.Fatalf("expected no credentials")
	}

	text, err := client.GenerateText(context.Background(), TextRequest{Prompt: "p", RequestID: "r1"})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("synthetic copy is not JSON: %v", err)
	}
	for _, key := range []string{"headline", "body_text", "caption", "text_color"} {
		if payload[key] == "" {
			t.Fatalf("synthetic copy missing %q", key)
		}
	}

	asset, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p", AspectRatio: "9:16", RequestID: "r1"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if asset.Width != 1080 || asset.Height != 1920 {
		t.Fatalf("synthetic dims = %dx%d", asset.Width, asset.Height)
	}
	again, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "p", AspectRatio: "9:16", RequestID: "r1"})
	if err != nil {
		t.Fatalf("GenerateImage repeat: %v", err)
	}
	if string(asset.Data) != string(again.Data) {
		t.Fatalf("synthetic image should be deterministic for identical requests")
	}
}
