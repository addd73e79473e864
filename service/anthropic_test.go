package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ansher/agreementtracker/config"
)

func testAnthropicConfig(url string) *config.AnthropicConfig {
	return &config.AnthropicConfig{
		APIURL:    url,
		APIKey:    "test-key",
		Model:     "test-model",
		Version:   "2023-06-01",
		MaxTokens: 1000,
	}
}

func TestNewAnthropicExtractor(t *testing.T) {
	cfg := testAnthropicConfig("https://api.anthropic.test")

	svc := NewAnthropicExtractor(cfg, 0)
	if svc == nil {
		t.Fatal("Expected non-nil extractor")
	}
	if svc.config != cfg {
		t.Error("Expected config to be set")
	}
	if svc.httpClient.Timeout != 60*time.Second {
		t.Errorf("Expected default timeout 60s, got %s", svc.httpClient.Timeout)
	}
}

func TestAnthropicExtract(t *testing.T) {
	pdf := []byte("%PDF-1.4 test document")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Expected x-api-key header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Error("Expected anthropic-version header")
		}

		var req AnthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "test-model" || req.MaxTokens != 1000 {
			t.Errorf("Unexpected model settings: %+v", req)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Fatalf("Expected one message with two blocks, got %+v", req.Messages)
		}
		doc := req.Messages[0].Content[0]
		if doc.Type != "document" || doc.Source == nil || doc.Source.MediaType != "application/pdf" {
			t.Errorf("Unexpected document block: %+v", doc)
		}
		if doc.Source.Data != base64.StdEncoding.EncodeToString(pdf) {
			t.Error("Expected base64 encoded document")
		}
		if req.Messages[0].Content[1].Text != ExtractionPrompt {
			t.Error("Expected the extraction prompt")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AnthropicResponse{
			Type: "message",
			Content: []AnthropicContent{
				{Type: "text", Text: "```json\n{\"parties\":[\"Ansher\",\"Acme\"],"},
				{Type: "text", Text: "\"agreementType\":\"NDA\",\"endDate\":\"2027-01-31\",\"company\":\"Ansher Capital LLC\"}\n```"},
			},
		})
	}))
	defer server.Close()

	svc := NewAnthropicExtractor(testAnthropicConfig(server.URL), 5*time.Second)
	e, err := svc.Extract(context.Background(), pdf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if *e.AgreementType != "NDA" || *e.EndDate != "2027-01-31" || *e.Company != "Ansher Capital LLC" {
		t.Errorf("Unexpected extraction: %+v", e)
	}
	if len(e.Parties) != 2 {
		t.Errorf("Expected 2 parties, got %v", e.Parties)
	}
}

func TestAnthropicExtractAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	svc := NewAnthropicExtractor(testAnthropicConfig(server.URL), 5*time.Second)
	_, err := svc.Extract(context.Background(), []byte("%PDF"))
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Expected ErrExtraction, got %v", err)
	}
}

func TestAnthropicExtractUnparsableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AnthropicResponse{
			Content: []AnthropicContent{{Type: "text", Text: "I could not read this document."}},
		})
	}))
	defer server.Close()

	svc := NewAnthropicExtractor(testAnthropicConfig(server.URL), 5*time.Second)
	_, err := svc.Extract(context.Background(), []byte("%PDF"))
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Expected ErrExtraction, got %v", err)
	}
}

func TestAnthropicExtractTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	svc := NewAnthropicExtractor(testAnthropicConfig(server.URL), 50*time.Millisecond)
	_, err := svc.Extract(context.Background(), []byte("%PDF"))
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("Expected ErrExtraction on timeout, got %v", err)
	}
}
