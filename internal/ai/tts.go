package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"castforge/internal/podcast"
)

// Turn is one ordered spoken line handed to the synthesizer.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Synthesizer is the speech-synthesis collaborator contract. It returns
// raw PCM at 24 kHz mono s16le, or an already-containerized WAV depending
// on the provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, turns []Turn, voices map[string]string) ([]byte, error)
}

// TTSOptions configures the speech synthesis client.
type TTSOptions struct {
	BaseURL string
	APIKey  string
	Model   string
}

type TTSClient struct {
	log        *zap.SugaredLogger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewTTSClient(log *zap.SugaredLogger, opts TTSOptions) *TTSClient {
	return &TTSClient{
		log:        log,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: 300 * time.Second},
	}
}

type synthesizeRequest struct {
	Model  string            `json:"model"`
	Turns  []Turn            `json:"turns"`
	Voices map[string]string `json:"voices"`
	Format string            `json:"format"`
}

// Synthesize sends the full ordered turn list with the speaker-to-voice
// map and returns the audio bytes verbatim.
func (c *TTSClient) Synthesize(ctx context.Context, turns []Turn, voices map[string]string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{
		Model:  c.model,
		Turns:  turns,
		Voices: voices,
		Format: "pcm",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, externalErr(podcast.ExternalUnavailable, "tts", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, externalErr(podcast.ExternalUnavailable, "tts", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, externalErr(podcast.ExternalQuotaExceeded, "tts", httpError(resp.StatusCode, raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warnw("tts request failed", "status", resp.StatusCode, "body", truncate(raw, 512))
		return nil, externalErr(podcast.ExternalUnavailable, "tts", httpError(resp.StatusCode, raw))
	}
	return raw, nil
}
