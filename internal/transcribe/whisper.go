// Package transcribe talks to the OpenAI audio transcription endpoint.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"jsonlify-backend/internal/convert"
)

const apiURL = "https://api.openai.com/v1/audio/transcriptions"

// Client implements convert.Transcriber against the Whisper API.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new transcription client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("TRANSCRIBE_MODEL is required")
	}
	timeout := 300 * time.Second
	if raw := strings.TrimSpace(os.Getenv("TRANSCRIBE_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type verboseResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Transcribe uploads the audio stream and returns segment-level timings.
func (c *Client) Transcribe(ctx context.Context, r io.Reader, fileName string) (convert.Transcription, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return convert.Transcription{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return convert.Transcription{}, fmt.Errorf("copy audio payload: %w", err)
	}
	if err := mw.WriteField("model", c.model); err != nil {
		return convert.Transcription{}, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return convert.Transcription{}, err
	}
	if err := mw.WriteField("timestamp_granularities[]", "segment"); err != nil {
		return convert.Transcription{}, err
	}
	if err := mw.Close(); err != nil {
		return convert.Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &body)
	if err != nil {
		return convert.Transcription{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return convert.Transcription{}, fmt.Errorf("transcription request timeout: %w", err)
		}
		return convert.Transcription{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return convert.Transcription{}, err
	}

	var parsed verboseResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return convert.Transcription{}, fmt.Errorf("transcription response parse: %w", err)
	}
	if parsed.Error != nil {
		return convert.Transcription{}, fmt.Errorf("transcription error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return convert.Transcription{}, fmt.Errorf("transcription failed with status %d", resp.StatusCode)
	}

	out := convert.Transcription{Text: parsed.Text}
	for _, seg := range parsed.Segments {
		out.Segments = append(out.Segments, convert.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return out, nil
}
