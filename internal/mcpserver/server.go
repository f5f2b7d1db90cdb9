// Package mcpserver exposes correction, translation and language detection
// as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"correctme/internal/llm"
	"correctme/internal/workflow"
)

// maxOutputBytes caps a tool response (1 MB).
const maxOutputBytes = 1 << 20

// ModelLister fetches the models offered by the configured endpoint.
type ModelLister func(ctx context.Context) ([]llm.Model, error)

// Server is the correctme MCP server.
type Server struct {
	version    string
	orch       *workflow.Orchestrator
	listModels ModelLister
	target     workflow.TranslationTarget
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithModelLister enables the list_models tool.
func WithModelLister(fn ModelLister) Option {
	return func(s *Server) { s.listModels = fn }
}

// WithDefaultTarget sets the language translate_text uses when none is given.
func WithDefaultTarget(t workflow.TranslationTarget) Option {
	return func(s *Server) { s.target = t }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server running workflows through orch.
func New(version string, orch *workflow.Orchestrator, opts ...Option) *Server {
	s := &Server{
		version: version,
		orch:    orch,
		target:  workflow.DefaultTarget(),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Serve starts the MCP server on stdio and blocks until the client disconnects.
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.build())
}

func (s *Server) build() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"correctme",
		s.version,
		mcpserver.WithRecovery(),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
	)
	s.registerTools(srv)
	s.registerResources(srv)
	return srv
}

func targetNames() []string {
	out := make([]string, 0, len(workflow.TranslationTargets))
	for _, t := range workflow.TranslationTargets {
		out = append(out, t.APIName)
	}
	return out
}

func (s *Server) registerTools(srv *mcpserver.MCPServer) {
	srv.AddTool(
		mcp.NewTool("correct_text",
			mcp.WithDescription("Detect the language of a text, correct its grammar and explain the changes"),
			mcp.WithString("text",
				mcp.Description("Text to correct"),
				mcp.Required(),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleCorrect,
	)

	srv.AddTool(
		mcp.NewTool("translate_text",
			mcp.WithDescription("Translate a text into one of the supported languages"),
			mcp.WithString("text",
				mcp.Description("Text to translate"),
				mcp.Required(),
			),
			mcp.WithString("target",
				mcp.Description("Target language"),
				mcp.Enum(targetNames()...),
				mcp.DefaultString(s.target.APIName),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleTranslate,
	)

	srv.AddTool(
		mcp.NewTool("detect_language",
			mcp.WithDescription("Identify the language a text is written in"),
			mcp.WithString("text",
				mcp.Description("Text to inspect"),
				mcp.Required(),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleDetect,
	)

	if s.listModels != nil {
		srv.AddTool(
			mcp.NewTool("list_models",
				mcp.WithDescription("List the models offered by the configured endpoint"),
				mcp.WithString("query",
					mcp.Description("Words every listed model name must contain"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			s.handleListModels,
		)
	}
}

func (s *Server) registerResources(srv *mcpserver.MCPServer) {
	srv.AddResource(
		mcp.NewResource("correctme://languages", "Translation languages",
			mcp.WithResourceDescription("Languages translate_text accepts as target"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleResourceLanguages,
	)
}

// toolView captures the last error status a workflow reports.
type toolView struct {
	workflow.NopView
	mu       sync.Mutex
	lastErr  string
	settings bool
}

func (v *toolView) SetStatus(message string, isError bool) {
	if !isError {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastErr = message
}

func (v *toolView) OpenSettings() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settings = true
}

func (s *Server) failure(err error, view *toolView) *mcp.CallToolResult {
	msg := err.Error()
	view.mu.Lock()
	needsSettings := view.settings
	view.mu.Unlock()
	if needsSettings {
		msg += " Run `correctme config` to update the settings."
	}
	return mcp.NewToolResultError(msg)
}

func (s *Server) busy() *mcp.CallToolResult {
	return mcp.NewToolResultError(s.orch.Localizer().Get("statusBusy"))
}

func (s *Server) handleCorrect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: text"), nil
	}
	view := &toolView{}
	res, err := s.orch.Correct(ctx, view, text)
	if err != nil {
		return s.failure(err, view), nil
	}
	if res == nil {
		return s.busy(), nil
	}

	var b strings.Builder
	b.WriteString(res.Corrected)
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "Language: %s\n", res.Language.EnglishName)
	fmt.Fprintf(&b, "Changes: %s\n", res.Diff)
	return mcp.NewToolResultText(truncate(b.String())), nil
}

func (s *Server) handleTranslate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: text"), nil
	}
	target := s.target
	if name := request.GetString("target", ""); name != "" {
		t, ok := workflow.FindTarget(name, s.orch.Localizer())
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported target language: %s", name)), nil
		}
		target = t
	}
	view := &toolView{}
	res, err := s.orch.Translate(ctx, view, text, target)
	if err != nil {
		return s.failure(err, view), nil
	}
	if res == nil {
		return s.busy(), nil
	}
	return mcp.NewToolResultText(truncate(res.Translated)), nil
}

func (s *Server) handleDetect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: text"), nil
	}
	view := &toolView{}
	info, err := s.orch.Detect(ctx, view, text)
	if err != nil {
		return s.failure(err, view), nil
	}
	if info == nil {
		return s.busy(), nil
	}
	data, err := json.Marshal(map[string]string{
		"englishName": info.EnglishName,
		"uiName":      info.UIName,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	models, err := s.listModels(ctx)
	if err != nil {
		s.logger.Warn("list models failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("listing models failed: %v", err)), nil
	}
	models = llm.FilterModels(models, request.GetString("query", ""))
	var b strings.Builder
	for _, m := range models {
		b.WriteString(m.ID)
		if m.Name != "" && m.Name != m.ID {
			b.WriteString("\t" + m.Name)
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return mcp.NewToolResultText(s.orch.Localizer().Get("noFreeModelsFound")), nil
	}
	return mcp.NewToolResultText(truncate(b.String())), nil
}

func (s *Server) handleResourceLanguages(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	loc := s.orch.Localizer()
	type language struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Default     bool   `json:"default,omitempty"`
	}
	out := make([]language, 0, len(workflow.TranslationTargets))
	for _, t := range workflow.TranslationTargets {
		out = append(out, language{Name: t.APIName, DisplayName: loc.Get(t.Key), Default: t.APIName == s.target.APIName})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + fmt.Sprintf("\n\n[truncated: %d bytes total]", len(s))
}
