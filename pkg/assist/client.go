// Package assist drafts borrower-facing text with a generative-text API:
// payment reminders in a chosen tone, and one-sentence risk narratives from
// a loan history summary. The output is opaque text; nothing here interprets
// or validates it. Without an API key the client degrades to deterministic
// template text, so the rest of the application never has to care whether
// the assistant is live.
package assist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = "You are an assistant for a small micro-lending operation. " +
	"You write short, respectful messages to borrowers about their loans, and " +
	"brief risk assessments for the lender. Keep reminders polite and concrete: " +
	"name, amount due, due date. Never invent figures that were not provided."

// Client talks to an OpenAI-style chat-completions endpoint.
type Client struct {
	apiKey     string
	apiURL     string
	enabled    bool
	httpClient *http.Client
	cache      Cache
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// NewClient builds an assistant client. An empty apiKey disables live calls;
// every draft then comes from the fallback templates.
func NewClient(apiKey string, cache Cache) *Client {
	return &Client{
		apiKey:  apiKey,
		apiURL:  defaultAPIURL,
		enabled: apiKey != "",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

// DraftReminder writes a payment reminder for a borrower. tone is free-form
// ("friendly", "firm", "final notice"); it is passed through to the model
// and folded into the fallback text.
func (c *Client) DraftReminder(borrowerName string, amountDue decimal.Decimal, dueDate time.Time, tone string) string {
	if tone == "" {
		tone = "friendly"
	}
	key := fmt.Sprintf("reminder:%s:%s:%s:%s", borrowerName, amountDue.StringFixed(2), dueDate.Format("2006-01-02"), tone)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	text := c.fallbackReminder(borrowerName, amountDue, dueDate, tone)
	if c.enabled {
		prompt := fmt.Sprintf(`Write a %s payment reminder message.

Borrower: %s
Amount due: %s
Due date: %s

Keep it to 2-3 sentences, ready to send as-is.`,
			tone, borrowerName, amountDue.StringFixed(2), dueDate.Format("January 2, 2006"))

		drafted, err := c.complete(prompt)
		if err != nil {
			slog.Warn("Assistant call failed, using fallback reminder", "error", err)
		} else {
			text = drafted
		}
	}

	if err := c.cache.Set(key, text); err != nil {
		slog.Warn("Failed to cache drafted reminder", "error", err)
	}
	return text
}

// RiskNarrative turns a loan history summary into a one-sentence narrative
// for the given risk label. The label itself comes from the standing
// classifier; the assistant only narrates it.
func (c *Client) RiskNarrative(label, historySummary string) string {
	key := fmt.Sprintf("narrative:%s:%s", label, historySummary)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	text := c.fallbackNarrative(label)
	if c.enabled {
		prompt := fmt.Sprintf(`A borrower has been classified as %q. Their loan history:

%s

Write ONE sentence for the lender explaining this borrower's repayment risk.`,
			label, historySummary)

		drafted, err := c.complete(prompt)
		if err != nil {
			slog.Warn("Assistant call failed, using fallback narrative", "error", err)
		} else {
			text = drafted
		}
	}

	if err := c.cache.Set(key, text); err != nil {
		slog.Warn("Failed to cache risk narrative", "error", err)
	}
	return text
}

func (c *Client) complete(prompt string) (string, error) {
	reqBody := chatRequest{
		Model: "gpt-4o-mini",
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 300,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from assistant")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

func (c *Client) fallbackReminder(borrowerName string, amountDue decimal.Decimal, dueDate time.Time, tone string) string {
	when := dueDate.Format("January 2, 2006")
	switch tone {
	case "firm":
		return fmt.Sprintf("%s, your payment of %s is due on %s. Please settle it on time to keep your account in good standing.",
			borrowerName, amountDue.StringFixed(2), when)
	case "final notice":
		return fmt.Sprintf("FINAL NOTICE for %s: payment of %s was expected by %s. Please contact us immediately to arrange payment.",
			borrowerName, amountDue.StringFixed(2), when)
	default:
		return fmt.Sprintf("Hi %s! A friendly reminder that your payment of %s is due on %s. Thank you!",
			borrowerName, amountDue.StringFixed(2), when)
	}
}

func (c *Client) fallbackNarrative(label string) string {
	switch label {
	case "Delinquent":
		return "This borrower has missed obligations and should be treated as high risk until the outstanding loans are resolved."
	case "Good Payer":
		return "This borrower has a track record of settling loans and is a low-risk candidate for repeat lending."
	case "New":
		return "This borrower has no lending history yet, so risk cannot be judged from past behavior."
	default:
		return "This borrower has open loans but no completed repayment history to judge risk from yet."
	}
}
