// Package openaicompat provides a Generator for servers that speak the
// OpenAI completions API, including Ollama's /v1 endpoints.
package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/providers"
)

const (
	dirOut = "MANZAI->LLM"
	dirIn  = "LLM->MANZAI"
)

// Provider implements providers.Generator with go-openai.
type Provider struct {
	httpClient *http.Client
	timeout    time.Duration
	debug      bool
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		debug:      cfg.Debug,
	}
}

// client builds a go-openai client for host. Hosts are configured with the
// server root; the /v1 suffix is added when missing.
func (p *Provider) client(host appconfig.Host) *openai.Client {
	cfg := openai.DefaultConfig(host.APIKey)
	cfg.BaseURL = baseURL(host.URL)
	cfg.HTTPClient = p.httpClient
	return openai.NewClientWithConfig(cfg)
}

func baseURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if strings.HasSuffix(url, "/v1") {
		return url
	}
	return url + "/v1"
}

func buildRequest(req providers.GenerateRequest) openai.CompletionRequest {
	params := req.Parameters
	cr := openai.CompletionRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stop:   params.Stop,
		Stream: req.Stream,
	}
	if params.Temperature != nil {
		cr.Temperature = float32(*params.Temperature)
	}
	if params.TopP != nil {
		cr.TopP = float32(*params.TopP)
	}
	if params.NumPredict != nil {
		cr.MaxTokens = *params.NumPredict
	}
	return cr
}

// unsupportedParams names the options set in params that the completions API
// has no field for.
func unsupportedParams(params appconfig.Parameters) []string {
	var dropped []string
	if params.TopK != nil {
		dropped = append(dropped, "top_k")
	}
	if params.MinP != nil {
		dropped = append(dropped, "min_p")
	}
	if params.RepeatPenalty != nil {
		dropped = append(dropped, "repeat_penalty")
	}
	if params.NumCtx != nil {
		dropped = append(dropped, "num_ctx")
	}
	return dropped
}

// isMalformedChunk reports whether err came from decoding one stream event.
func isMalformedChunk(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// Generate sends the prompt to /v1/completions, streaming when requested.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest, callbacks providers.StreamCallbacks) error {
	hostID := providers.HostIdentifier(req.Host)
	endpoint := baseURL(req.Host.URL) + "/completions"
	cr := buildRequest(req)
	if dropped := unsupportedParams(req.Parameters); len(dropped) > 0 && p.debug {
		log.Printf("openai: %s not sent to %s (no completions field)", strings.Join(dropped, ", "), hostID)
	}
	logging.LogRequest(dirOut, hostID, req.Model, req.Scenario, cr)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client := p.client(req.Host)
	start := time.Now()

	if !req.Stream {
		resp, err := client.CreateCompletion(ctx, cr)
		if err != nil {
			return generationError(hostID, endpoint, err)
		}
		logging.LogRequest(dirIn, hostID, req.Model, req.Scenario, resp)
		var text string
		if len(resp.Choices) > 0 {
			text = resp.Choices[0].Text
		}
		if callbacks.OnChunk != nil && text != "" {
			if err := callbacks.OnChunk(text); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)
		return complete(callbacks, pick(resp.Model, req.Model), resp.Usage, 0, elapsed, elapsed)
	}

	stream, err := client.CreateCompletionStream(ctx, cr)
	if err != nil {
		return generationError(hostID, endpoint, err)
	}
	defer stream.Close()

	var (
		usage     openai.Usage
		model     = req.Model
		chunks    int
		firstByte time.Time
	)
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && isMalformedChunk(err) {
			if p.debug {
				log.Printf("openai: skipping malformed stream event: %v", err)
			}
			continue
		}
		if err != nil {
			return generationError(hostID, endpoint, err)
		}
		logging.LogRequest(dirIn, hostID, req.Model, req.Scenario, resp)
		model = pick(resp.Model, model)
		if resp.Usage.CompletionTokens > 0 {
			usage = resp.Usage
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Text == "" {
			continue
		}
		if firstByte.IsZero() {
			firstByte = time.Now()
		}
		chunks++
		if callbacks.OnChunk != nil {
			if err := callbacks.OnChunk(resp.Choices[0].Text); err != nil {
				return err
			}
		}
	}

	total := time.Since(start)
	eval := total
	if !firstByte.IsZero() {
		eval = time.Since(firstByte)
	}
	return complete(callbacks, model, usage, chunks, eval, total)
}

// complete reports counters. Servers that omit usage in streamed responses
// get one token per received chunk as an estimate.
func complete(callbacks providers.StreamCallbacks, model string, usage openai.Usage, chunks int, eval, total time.Duration) error {
	if callbacks.OnComplete == nil {
		return nil
	}
	evalCount := usage.CompletionTokens
	if evalCount == 0 {
		evalCount = chunks
	}
	return callbacks.OnComplete(providers.StreamMetadata{
		Model:           model,
		CreatedAt:       time.Now(),
		Done:            true,
		TotalDuration:   total.Nanoseconds(),
		PromptEvalCount: usage.PromptTokens,
		EvalCount:       evalCount,
		EvalDuration:    eval.Nanoseconds(),
	})
}

func generationError(hostID, endpoint string, err error) error {
	genErr := &providers.GenerationError{Host: hostID, Endpoint: endpoint, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		genErr.StatusCode = apiErr.HTTPStatusCode
		genErr.Body = apiErr.Message
	case errors.As(err, &reqErr):
		genErr.StatusCode = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			genErr.Body = reqErr.Err.Error()
		}
	}
	if genErr.StatusCode != 0 {
		genErr.Status = fmt.Sprintf("%d %s", genErr.StatusCode, http.StatusText(genErr.StatusCode))
	}
	return genErr
}

// Status lists models through /v1/models.
func (p *Provider) Status(ctx context.Context, host appconfig.Host) providers.Status {
	status := providers.Status{
		Host:            providers.HostIdentifier(host),
		URL:             host.URL,
		Type:            appconfig.HostTypeOpenAI,
		AvailableModels: []string{},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	logging.LogRequest(dirOut, status.Host, "", "", map[string]string{"method": http.MethodGet, "url": baseURL(host.URL) + "/models"})
	models, err := p.client(host).ListModels(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	logging.LogRequest(dirIn, status.Host, "", "", models)
	for _, m := range models.Models {
		status.AvailableModels = append(status.AvailableModels, m.ID)
	}
	status.Connected = true
	return status
}

// EnsureModelReady is a no-op; OpenAI-compatible servers load on first use.
func (p *Provider) EnsureModelReady(context.Context, appconfig.Host, string) error {
	return nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

func pick(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
