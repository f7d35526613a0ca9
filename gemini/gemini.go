// Package gemini analyzes article region images with Google's Gemini API:
// it reads the article text out of the image, translates it, and returns
// the structured parts (headline, subheadline, main text).
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// DefaultBaseURL is the Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds client configuration.
type Config struct {
	// APIKey authenticates against the Generative Language API. Required.
	APIKey string

	// Model selects the Gemini model.
	Model string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// SourceLanguage and TargetLanguage are BCP 47 tags. SourceLanguage
	// names the language printed on the page; TargetLanguage is what the
	// article parts come back in.
	SourceLanguage string
	TargetLanguage string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

// DefaultConfig returns sensible default configuration. APIKey must still
// be set by the caller.
func DefaultConfig() Config {
	return Config{
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		SourceLanguage: "te",
		TargetLanguage: "en",
	}
}

// Validate checks client configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("gemini: APIKey is required")
	}
	if c.Model == "" {
		return fmt.Errorf("gemini: Model is required")
	}
	if _, err := language.Parse(c.SourceLanguage); err != nil {
		return fmt.Errorf("gemini: invalid source language %q: %w", c.SourceLanguage, err)
	}
	if _, err := language.Parse(c.TargetLanguage); err != nil {
		return fmt.Errorf("gemini: invalid target language %q: %w", c.TargetLanguage, err)
	}
	return nil
}

// Extraction is the structured article content recovered from one region
// image. Absent sections are empty strings.
type Extraction struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	MainText    string `json:"main_text"`
}

// Client calls the Gemini generateContent API.
type Client struct {
	config     Config
	httpClient *http.Client
	sourceName string
	targetName string
}

// NewClient creates a Gemini client.
func NewClient(config Config) (*Client, error) {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.SourceLanguage == "" {
		config.SourceLanguage = DefaultConfig().SourceLanguage
	}
	if config.TargetLanguage == "" {
		config.TargetLanguage = DefaultConfig().TargetLanguage
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	en := display.English.Languages()
	return &Client{
		config:     config,
		httpClient: httpClient,
		sourceName: en.Name(language.MustParse(config.SourceLanguage)),
		targetName: en.Name(language.MustParse(config.TargetLanguage)),
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// AnalyzeImage reads the article printed in a PNG region image, translates
// it, and returns the structured parts. A response that is not valid JSON
// is kept whole as the main text rather than discarded.
func (c *Client) AnalyzeImage(ctx context.Context, pngData []byte) (Extraction, error) {
	if len(pngData) == 0 {
		return Extraction{}, fmt.Errorf("gemini: empty image")
	}

	prompt := fmt.Sprintf(
		"Analyze the text in this image (which is in %s). "+
			"Translate the text into %s and format the response as a JSON object "+
			"with the keys: headline, subheadline, and main_text. "+
			"If a section is not present, set its value to null. "+
			"Ensure all text in the JSON object is in %s.",
		c.sourceName, c.targetName, c.targetName)

	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(pngData),
				}},
			},
		}},
	}

	text, err := c.generate(ctx, req)
	if err != nil {
		return Extraction{}, err
	}

	return parseExtraction(text), nil
}

// TranslateText translates plain text into the given target language
// (a BCP 47 tag). An empty target falls back to the configured one.
func (c *Client) TranslateText(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	targetName := c.targetName
	if targetLanguage != "" {
		tag, err := language.Parse(targetLanguage)
		if err != nil {
			return "", fmt.Errorf("gemini: invalid target language %q: %w", targetLanguage, err)
		}
		targetName = display.English.Languages().Name(tag)
	}

	prompt := fmt.Sprintf(
		"Translate the following %s text into %s. "+
			"Respond with the translation only, no commentary.\n\n%s",
		c.sourceName, targetName, text)

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	out, err := c.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.config.BaseURL, c.config.Model, c.config.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: API returned %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decoding response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: response carried no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// parseExtraction decodes the model's JSON reply, tolerating markdown code
// fences. Replies that still fail to decode become main text wholesale.
func parseExtraction(text string) Extraction {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Headline    *string `json:"headline"`
		Subheadline *string `json:"subheadline"`
		MainText    *string `json:"main_text"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return Extraction{MainText: cleaned}
	}

	var out Extraction
	if raw.Headline != nil {
		out.Headline = strings.TrimSpace(*raw.Headline)
	}
	if raw.Subheadline != nil {
		out.Subheadline = strings.TrimSpace(*raw.Subheadline)
	}
	if raw.MainText != nil {
		out.MainText = strings.TrimSpace(*raw.MainText)
	}
	return out
}

// truncateBody shortens an error-path response body, cutting on a rune
// boundary so the message stays valid UTF-8.
func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "..."
}
