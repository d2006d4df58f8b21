// Package whisper uploads audio segments to an OpenAI-compatible
// speech-to-text endpoint and returns word-level timestamps.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipper/internal/domain/caption"
	"clipper/internal/domain/fault"
)

const defaultURL = "https://api.openai.com/v1/audio/transcriptions"

// Client is a speech-to-text infrastructure adapter.
type Client struct {
	URL    string
	APIKey string
	Model  string
	HTTP   *http.Client
}

// NewClient creates a transcription adapter. An empty apiKey leaves the
// client unconfigured; calls then fail with an ExternalServiceError.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(url) == "" {
		url = defaultURL
	}
	return &Client{
		URL:    url,
		APIKey: apiKey,
		Model:  "whisper-1",
		HTTP:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a service credential is configured.
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type verboseResponse struct {
	Text  string `json:"text"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe uploads the audio file as a multipart body requesting verbose
// output with word-level timestamp granularity, and returns the full text
// plus the ordered word stream.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, []caption.Word, error) {
	if !c.Enabled() {
		return "", nil, &fault.ExternalServiceError{Msg: "speech-to-text service is not configured"}
	}

	body, contentType, err := buildForm(audioPath, c.Model)
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return "", nil, &fault.ExternalServiceError{Msg: "building transcription request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", nil, &fault.ExternalServiceError{Msg: "transcription request failed", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", nil, &fault.ExternalServiceError{Msg: "reading transcription response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(payload))
		if len(detail) > 512 {
			detail = detail[:512]
		}
		return "", nil, &fault.ExternalServiceError{Msg: "transcription service returned " + resp.Status + ": " + detail}
	}

	var parsed verboseResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", nil, &fault.ExternalServiceError{Msg: "unparseable transcription response", Err: err}
	}

	words := make([]caption.Word, 0, len(parsed.Words))
	for _, w := range parsed.Words {
		words = append(words, caption.Word{
			Text:  strings.TrimSpace(w.Word),
			Start: w.Start,
			End:   w.End,
		})
	}
	return parsed.Text, words, nil
}

func buildForm(audioPath, model string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", &fault.FilesystemError{Msg: "opening audio segment", Err: err}
	}
	defer file.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", &fault.ExternalServiceError{Msg: "building multipart body", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", &fault.FilesystemError{Msg: "reading audio segment", Err: err}
	}

	_ = form.WriteField("model", model)
	_ = form.WriteField("response_format", "verbose_json")
	_ = form.WriteField("timestamp_granularities[]", "word")

	if err := form.Close(); err != nil {
		return nil, "", &fault.ExternalServiceError{Msg: "building multipart body", Err: err}
	}
	return &buf, form.FormDataContentType(), nil
}
