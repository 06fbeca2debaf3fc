package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faultline-io/faultline/pkg/client"
)

// Server adapts the faultline daemon to the Model Context Protocol, so an
// agent can browse scenarios and drive runs through tools instead of raw
// HTTP.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"faultline",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// faultline://scenarios
	s.mcpServer.AddResource(mcp.NewResource(
		"faultline://scenarios",
		"Chaos Scenarios",
		mcp.WithResourceDescription("Stored chaos scenarios with their ordered step timelines"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadScenarios)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"run_scenario",
		mcp.WithDescription("Start executing a stored chaos scenario. Returns the run id."),
		mcp.WithString("scenario_id", mcp.Required(), mcp.Description("The scenario to run")),
	), s.handleRunScenario)

	s.mcpServer.AddTool(mcp.NewTool(
		"get_run",
		mcp.WithDescription("Fetch a run's current progress: per-step status and run state."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("The run to inspect")),
	), s.handleGetRun)

	s.mcpServer.AddTool(mcp.NewTool(
		"stop_run",
		mcp.WithDescription("Request cancellation of a run. Honored at the next suspension point."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("The run to stop")),
	), s.handleStopRun)
}

// --- Handlers ---

func (s *Server) handleReadScenarios(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	scenarios, err := s.apiClient.ListScenarios(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scenarios: %w", err)
	}

	data, err := json.MarshalIndent(scenarios, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenarios: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleRunScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarioID := mcp.ParseString(request, "scenario_id", "")
	runID, err := s.apiClient.StartRun(ctx, scenarioID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Run started: %s", runID)), nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := mcp.ParseString(request, "run_id", "")
	snap, err := s.apiClient.GetRun(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run snapshot: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStopRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := mcp.ParseString(request, "run_id", "")
	if err := s.apiClient.StopRun(ctx, runID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stop requested for run %s", runID)), nil
}
