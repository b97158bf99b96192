package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// OllamaAdapter talks to an Ollama-compatible inference endpoint.
type OllamaAdapter struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o OllamaAdapter) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: 45 * time.Second}
}

func (o OllamaAdapter) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	payload := generateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Stream: false,
	}
	options := map[string]any{}
	if opts.Temperature >= 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) > 0 {
		payload.Options = options
	}
	body, _ := json.Marshal(payload)

	client := o.httpClient()
	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200)))
		}

		var r generateResponse
		if err := json.Unmarshal(respBody, &r); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		text = r.Response
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", &GatewayError{Op: "generate", Err: err}
	}
	return text, nil
}

func (o OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &GatewayError{Op: "list models", Err: err}
	}
	resp, err := o.httpClient().Do(req)
	if err != nil {
		return nil, &GatewayError{Op: "list models", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{Op: "list models", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var r struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, &GatewayError{Op: "list models", Err: err}
	}

	names := make([]string, 0, len(r.Models))
	for _, m := range r.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
