package assist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDraftReminderFallbacks(t *testing.T) {
	client := NewClient("", NewMemoryCache()) // no key: fallback mode
	due := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(120)

	cases := []struct {
		tone string
		want string
	}{
		{"friendly", "friendly reminder"},
		{"firm", "good standing"},
		{"final notice", "FINAL NOTICE"},
		{"", "friendly reminder"}, // empty tone defaults to friendly
	}

	for _, tc := range cases {
		t.Run("tone "+tc.tone, func(t *testing.T) {
			text := client.DraftReminder("Maria Santos", amount, due, tc.tone)
			if !strings.Contains(text, "Maria Santos") {
				t.Errorf("Expected borrower name in reminder, got %q", text)
			}
			if !strings.Contains(text, "120.00") {
				t.Errorf("Expected amount in reminder, got %q", text)
			}
			if !strings.Contains(text, tc.want) {
				t.Errorf("Expected %q in reminder, got %q", tc.want, text)
			}
		})
	}
}

func TestRiskNarrativeFallbacks(t *testing.T) {
	client := NewClient("", NewMemoryCache())

	cases := []struct {
		label string
		want  string
	}{
		{"Delinquent", "high risk"},
		{"Good Payer", "low-risk"},
		{"New", "no lending history"},
		{"Neutral", "open loans"},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			text := client.RiskNarrative(tc.label, "summary")
			if !strings.Contains(text, tc.want) {
				t.Errorf("Expected %q in narrative, got %q", tc.want, text)
			}
		})
	}
}

func TestDraftReminderUsesCache(t *testing.T) {
	cache := NewMemoryCache()
	client := NewClient("", cache)
	due := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)

	first := client.DraftReminder("Maria Santos", decimal.NewFromInt(120), due, "friendly")
	if len(cache.data) != 1 {
		t.Fatalf("Expected 1 cached entry, got %d", len(cache.data))
	}

	// Poison the cached value: a hit must return it verbatim.
	for key := range cache.data {
		cache.Set(key, "cached text")
	}
	second := client.DraftReminder("Maria Santos", decimal.NewFromInt(120), due, "friendly")
	if second != "cached text" {
		t.Errorf("Expected the cached text, got %q", second)
	}
	if first == second {
		t.Error("Expected the poisoned cache entry to differ from the first draft")
	}
}

func TestDraftReminderCallsAPI(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Expected a system + user message pair, got %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message message `json:"message"`
			}{
				{Message: message{Role: "assistant", Content: "Drafted by the model."}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", NewMemoryCache())
	client.apiURL = srv.URL

	due := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	text := client.DraftReminder("Maria Santos", decimal.NewFromInt(120), due, "friendly")

	if text != "Drafted by the model." {
		t.Errorf("Expected the model's draft, got %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
}

func TestDraftReminderFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", NewMemoryCache())
	client.apiURL = srv.URL

	due := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	text := client.DraftReminder("Maria Santos", decimal.NewFromInt(120), due, "friendly")

	if !strings.Contains(text, "friendly reminder") {
		t.Errorf("Expected the fallback reminder after an API error, got %q", text)
	}
}
