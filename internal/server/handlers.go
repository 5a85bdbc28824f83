package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/prompt"
	"github.com/mwiater/manzai/internal/providers"
	"github.com/mwiater/manzai/internal/scenario"
)

type promptRequest struct {
	Character json.RawMessage `json:"character"`
	Input     string          `json:"input"`
	History   []prompt.Turn   `json:"history"`
}

type promptResponse struct {
	Prompt   string          `json:"prompt"`
	Analysis prompt.Analysis `json:"analysis"`
}

type evaluateRequest struct {
	Character  json.RawMessage `json:"character"`
	Scenario   evaluate.Tag    `json:"scenario"`
	Input      string          `json:"input"`
	Output     string          `json:"output"`
	LatencyMs  int64           `json:"latencyMs"`
	TokenCount int             `json:"tokenCount"`
}

type testRequest struct {
	Character json.RawMessage `json:"character"`
	Scenario  evaluate.Tag    `json:"scenario"`
	Input     string          `json:"input"`
	History   []prompt.Turn   `json:"history"`
}

type testResponse struct {
	Model      string               `json:"model"`
	Prompt     string               `json:"prompt"`
	Generation providers.Generation `json:"generation"`
	Record     evaluate.Record      `json:"record"`
}

type exportRequest struct {
	Character json.RawMessage `json:"character"`
	Endpoint  string          `json:"endpoint"`
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.generator.Status(c.Request.Context(), s.host))
}

func (s *Server) composePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.profile(req.Character)
	if err != nil {
		badRequest(c, err)
		return
	}
	var rendered string
	if len(req.History) > 0 {
		rendered, err = prompt.RenderConversation(p, req.History, req.Input)
	} else {
		rendered, err = prompt.RenderSingle(p, req.Input)
	}
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, promptResponse{Prompt: rendered, Analysis: prompt.Analyze(rendered)})
}

func (s *Server) evaluateReply(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.profile(req.Character)
	if err != nil {
		badRequest(c, err)
		return
	}
	tag := req.Scenario
	if strings.TrimSpace(string(tag)) == "" {
		tag = evaluate.TagBasic
	}
	c.JSON(http.StatusOK, s.evaluator.Evaluate(p, tag, req.Input, req.Output, req.LatencyMs, req.TokenCount))
}

// testCharacter renders a prompt, sends it to the configured host and
// evaluates the reply in one round trip.
func (s *Server) testCharacter(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.profile(req.Character)
	if err != nil {
		badRequest(c, err)
		return
	}
	tag := req.Scenario
	if strings.TrimSpace(string(tag)) == "" {
		tag = evaluate.TagBasic
		if len(req.History) > 0 {
			tag = evaluate.TagChat
		}
	}

	var rendered string
	if len(req.History) > 0 {
		rendered, err = prompt.RenderConversation(p, req.History, req.Input)
	} else {
		rendered, err = prompt.RenderSingle(p, req.Input)
	}
	if err != nil {
		badRequest(c, err)
		return
	}

	model := scenario.ResolveModel(p, s.host)
	gen, err := providers.Collect(c.Request.Context(), s.generator, providers.GenerateRequest{
		Host:       s.host,
		Model:      model,
		Prompt:     rendered,
		Parameters: p.EffectiveParams(s.host.Parameters),
		Scenario:   string(tag),
	}, nil)
	if err != nil {
		body := gin.H{"error": err.Error(), "record": evaluate.Failed(tag, req.Input, err)}
		var genErr *providers.GenerationError
		if errors.As(err, &genErr) {
			body["statusCode"] = genErr.StatusCode
			body["status"] = genErr.Status
			body["body"] = genErr.Body
		}
		status := http.StatusBadGateway
		if providers.IsDeadlineExceeded(err) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, testResponse{
		Model:      model,
		Prompt:     rendered,
		Generation: gen,
		Record:     s.evaluator.Evaluate(p, tag, req.Input, gen.Text, gen.LatencyMs, gen.TokenCount),
	})
}

func (s *Server) export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.profile(req.Character)
	if err != nil {
		badRequest(c, err)
		return
	}
	style, err := prompt.Template(p)
	if err != nil {
		badRequest(c, err)
		return
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = s.host.URL
	}
	c.JSON(http.StatusOK, character.BuildExport(p, endpoint, style, s.now()))
}
