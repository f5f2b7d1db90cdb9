package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"correctme/internal/config"
	"correctme/internal/llm"
)

const connectionTestTimeout = 15 * time.Second

type TestResult struct {
	Success bool
	Message string
	Latency time.Duration
}

// TestConnection sends a one-word completion through profile and reports
// whether the endpoint answered.
func TestConnection(ctx context.Context, profile *config.Profile) TestResult {
	if profile == nil {
		return TestResult{Message: "Profile is nil"}
	}
	if strings.TrimSpace(profile.BaseURL) == "" {
		return TestResult{Message: "Base URL is empty"}
	}
	model := strings.TrimSpace(profile.Model)
	if model == "" && len(profile.Models) > 0 {
		model = profile.Models[0]
	}
	if model == "" {
		return TestResult{Message: "No model selected"}
	}

	client := llm.NewClient(profile.BaseURL, llm.WithTimeout(connectionTestTimeout))
	req := llm.CompletionRequest{
		Model:    model,
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "ping"}},
	}

	start := time.Now()
	_, err := client.Complete(ctx, req, profile.APIKey)
	latency := time.Since(start)
	if err != nil {
		return TestResult{Message: describeConnectionError(err), Latency: latency}
	}
	return TestResult{
		Success: true,
		Message: fmt.Sprintf("OK (model: %s)", model),
		Latency: latency,
	}
}

func describeConnectionError(err error) string {
	var authErr *llm.AuthError
	var apiErr *llm.APIError
	var netErr *llm.NetworkError
	switch {
	case errors.As(err, &authErr):
		return "API key is empty"
	case errors.As(err, &apiErr):
		msg := fmt.Sprintf("HTTP %d %s", apiErr.Status, apiErr.StatusText)
		if apiErr.Detail != "" {
			msg += ": " + apiErr.Detail
		}
		return msg
	case errors.As(err, &netErr):
		return "Connection failed: " + netErr.Detail
	default:
		return err.Error()
	}
}
