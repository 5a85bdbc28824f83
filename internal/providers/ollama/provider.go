// internal/providers/ollama/provider.go
// Package ollama provides a Generator backed by Ollama-compatible HTTP endpoints.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/providers"
)

const (
	dirOut = "MANZAI->LLM"
	dirIn  = "LLM->MANZAI"

	// maxLineBytes bounds one NDJSON line of a streamed response.
	maxLineBytes = 1 << 20
)

// Provider implements providers.Generator using the Ollama HTTP API.
type Provider struct {
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

// generateChunk is one object of an /api/generate response; the streamed
// form sends many with done=false and a final one carrying the counters.
type generateChunk struct {
	Model              string `json:"model"`
	Response           string `json:"response"`
	Done               bool   `json:"done"`
	TotalDuration      int64  `json:"total_duration"`
	LoadDuration       int64  `json:"load_duration"`
	PromptEvalCount    int    `json:"prompt_eval_count"`
	PromptEvalDuration int64  `json:"prompt_eval_duration"`
	EvalCount          int    `json:"eval_count"`
	EvalDuration       int64  `json:"eval_duration"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// modelsResponse is shared by /api/tags and /api/ps.
type modelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate posts the prompt to /api/generate and forwards output to callbacks.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest, callbacks providers.StreamCallbacks) error {
	hostID := providers.HostIdentifier(req.Host)
	endpoint := req.Host.URL + "/api/generate"

	payload := map[string]any{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"options": buildOptions(req.Parameters),
		"stream":  req.Stream,
		"raw":     true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if pretty, perr := json.MarshalIndent(payload, "", "  "); perr == nil {
		logging.LogRequest(dirOut, hostID, req.Model, req.Scenario, pretty)
	} else {
		logging.LogRequest(dirOut, hostID, req.Model, req.Scenario, body)
	}

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(genCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &providers.GenerationError{Host: hostID, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest(dirIn, hostID, req.Model, req.Scenario, raw)
		return &providers.GenerationError{
			Host:       hostID,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	if !req.Stream {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &providers.GenerationError{Host: hostID, Endpoint: endpoint, Err: err}
		}
		logging.LogRequest(dirIn, hostID, req.Model, req.Scenario, raw)
		var result generateChunk
		if err := json.Unmarshal(raw, &result); err != nil {
			return &providers.GenerationError{Host: hostID, Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
		}
		if callbacks.OnChunk != nil && result.Response != "" {
			if err := callbacks.OnChunk(result.Response); err != nil {
				return err
			}
		}
		return complete(callbacks, req.Model, result)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var final generateChunk
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			if p.debug {
				log.Printf("ollama: skipping malformed stream line: %v", err)
			}
			continue
		}
		logging.LogRequest(dirIn, hostID, req.Model, req.Scenario, line)

		if callbacks.OnChunk != nil && chunk.Response != "" {
			if err := callbacks.OnChunk(chunk.Response); err != nil {
				return err
			}
		}
		if chunk.Done {
			final = chunk
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return &providers.GenerationError{Host: hostID, Endpoint: endpoint, Err: err}
	}

	return complete(callbacks, req.Model, final)
}

func complete(callbacks providers.StreamCallbacks, model string, final generateChunk) error {
	if callbacks.OnComplete == nil {
		return nil
	}
	if final.Model != "" {
		model = final.Model
	}
	return callbacks.OnComplete(providers.StreamMetadata{
		Model:              model,
		CreatedAt:          time.Now(),
		Done:               final.Done,
		TotalDuration:      final.TotalDuration,
		LoadDuration:       final.LoadDuration,
		PromptEvalCount:    final.PromptEvalCount,
		PromptEvalDuration: final.PromptEvalDuration,
		EvalCount:          final.EvalCount,
		EvalDuration:       final.EvalDuration,
	})
}

// Status probes /api/version and /api/tags, then lists loaded models from
// /api/ps. Failures are reported in the returned Status.
func (p *Provider) Status(ctx context.Context, host appconfig.Host) providers.Status {
	status := providers.Status{
		Host:            providers.HostIdentifier(host),
		URL:             host.URL,
		Type:            appconfig.HostTypeOllama,
		AvailableModels: []string{},
	}

	var version versionResponse
	if err := p.getJSON(ctx, host, "/api/version", &version); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Version = version.Version

	var tags modelsResponse
	if err := p.getJSON(ctx, host, "/api/tags", &tags); err != nil {
		status.Error = err.Error()
		return status
	}
	for _, m := range tags.Models {
		status.AvailableModels = append(status.AvailableModels, m.Name)
	}
	status.Connected = true

	if loaded, err := p.LoadedModels(ctx, host); err == nil {
		status.LoadedModels = loaded
	} else if p.debug {
		log.Printf("ollama: /api/ps failed: %v", err)
	}
	return status
}

// LoadedModels returns the models currently loaded in memory on the host.
func (p *Provider) LoadedModels(ctx context.Context, host appconfig.Host) ([]string, error) {
	var ps modelsResponse
	if err := p.getJSON(ctx, host, "/api/ps", &ps); err != nil {
		return nil, err
	}
	names := make([]string, len(ps.Models))
	for i, m := range ps.Models {
		names[i] = m.Name
	}
	return names, nil
}

func (p *Provider) getJSON(ctx context.Context, host appconfig.Host, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := host.URL + path
	logging.LogRequest(dirOut, providers.HostIdentifier(host), "", "", map[string]string{"method": http.MethodGet, "url": endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest(dirIn, providers.HostIdentifier(host), "", "", body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: %s returned %s", path, resp.Status)
	}
	return json.Unmarshal(body, out)
}

// EnsureModelReady triggers a prompt-less generate request so the model is
// loaded before the first timed call.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	body, err := json.Marshal(map[string]any{"model": model})
	if err != nil {
		return err
	}
	hostID := providers.HostIdentifier(host)
	logging.LogRequest(dirOut, hostID, model, "", body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host.URL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest(dirIn, hostID, model, "", respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func buildOptions(params appconfig.Parameters) map[string]any {
	options := map[string]any{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopK != nil {
		options["top_k"] = *params.TopK
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MinP != nil {
		options["min_p"] = *params.MinP
	}
	if params.RepeatPenalty != nil {
		options["repeat_penalty"] = *params.RepeatPenalty
	}
	if params.NumPredict != nil {
		options["num_predict"] = *params.NumPredict
	}
	if params.NumCtx != nil {
		options["num_ctx"] = *params.NumCtx
	}
	if len(params.Stop) > 0 {
		options["stop"] = params.Stop
	}
	return options
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}
