// Package mcp provides an MCP (Model Context Protocol) server that
// exposes projspec functionality as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/projspec/internal/core"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// Server wraps projspec services and exposes them as MCP tools.
type Server struct {
	server   *gomcp.Server
	status   core.StatusService
	features core.FeatureService
}

// NewServer creates a new MCP server with the given service dependencies.
func NewServer(status core.StatusService, features core.FeatureService, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		status:   status,
		features: features,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "projspec", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport, blocking until the
// client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type projectStatusInput struct{}

type taskProgressOutput struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	InProgress int     `json:"in_progress"`
	Completed  int     `json:"completed"`
	Skipped    int     `json:"skipped"`
	Percentage float64 `json:"percentage"`
}

type taskOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Priority  string   `json:"priority"`
	DependsOn []string `json:"depends_on,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}

type featureStatusOutput struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	FullName          string             `json:"full_name"`
	Phase             string             `json:"phase"`
	Branch            string             `json:"branch,omitempty"`
	UpdatedAt         string             `json:"updated_at,omitempty"`
	Progress          taskProgressOutput `json:"progress"`
	HasSpec           bool               `json:"has_spec"`
	HasPlan           bool               `json:"has_plan"`
	HasTasks          bool               `json:"has_tasks"`
	HasState          bool               `json:"has_state"`
	NextAvailableTask *taskOutput        `json:"next_available_task,omitempty"`
}

type projectStatusOutput struct {
	ProjectName     string                `json:"project_name"`
	CurrentBranch   string                `json:"current_branch,omitempty"`
	Features        []featureStatusOutput `json:"features"`
	TotalFeatures   int                   `json:"total_features"`
	FeaturesByPhase map[string]int        `json:"features_by_phase"`
	TotalTasks      int                   `json:"total_tasks"`
	CompletedTasks  int                   `json:"completed_tasks"`
}

type featureStatusInput struct {
	Feature string `json:"feature" jsonschema:"required,the feature reference: a number (1, 001) or full name (001-user-auth)"`
}

type nextTaskInput struct {
	Feature string `json:"feature" jsonschema:"required,the feature reference: a number (1, 001) or full name (001-user-auth)"`
}

type nextTaskOutput struct {
	Task    *taskOutput `json:"task,omitempty"`
	Message string      `json:"message,omitempty"`
}

type updateTaskStatusInput struct {
	Feature string `json:"feature" jsonschema:"required,the feature reference: a number (1, 001) or full name (001-user-auth)"`
	TaskID  string `json:"task_id" jsonschema:"required,the task identifier (e.g. T001)"`
	Status  string `json:"status" jsonschema:"required,the transition to apply (in_progress, completed, skipped)"`
	Summary string `json:"summary,omitempty" jsonschema:"optional summary of what was done, or the reason for skipping"`
}

type updateTaskStatusOutput struct {
	Message string `json:"message"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "project_status",
		Description: "Get the status of every feature in the project: phases, task progress, and aggregate counts.",
	}, s.handleProjectStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "feature_status",
		Description: "Get one feature's status: phase, artifact presence, task progress, and the next available task.",
	}, s.handleFeatureStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_task",
		Description: "Get the next task that is ready to start in a feature (pending with all dependencies completed).",
	}, s.handleNextTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Transition a task's status. Valid transitions: in_progress (start), completed (finish), skipped (skip).",
	}, s.handleUpdateTaskStatus)
}

// --- Tool handlers ---

func (s *Server) handleProjectStatus(_ context.Context, _ *gomcp.CallToolRequest, _ projectStatusInput) (*gomcp.CallToolResult, projectStatusOutput, error) {
	snapshot, err := s.status.ProjectStatus()
	if err != nil {
		return errorResult(fmt.Sprintf("collecting project status: %s", err)), projectStatusOutput{}, nil
	}

	out := projectStatusOutput{
		ProjectName:     snapshot.ProjectName,
		CurrentBranch:   snapshot.CurrentBranch,
		Features:        make([]featureStatusOutput, len(snapshot.Features)),
		TotalFeatures:   snapshot.TotalFeatures,
		FeaturesByPhase: make(map[string]int, len(snapshot.FeaturesByPhase)),
		TotalTasks:      snapshot.TotalTasks,
		CompletedTasks:  snapshot.CompletedTasks,
	}
	for i := range snapshot.Features {
		out.Features[i] = featureToOutput(&snapshot.Features[i])
	}
	for phase, count := range snapshot.FeaturesByPhase {
		out.FeaturesByPhase[string(phase)] = count
	}
	return nil, out, nil
}

func (s *Server) handleFeatureStatus(_ context.Context, _ *gomcp.CallToolRequest, input featureStatusInput) (*gomcp.CallToolResult, featureStatusOutput, error) {
	if input.Feature == "" {
		return errorResult("feature is required"), featureStatusOutput{}, nil
	}

	snapshot, err := s.status.FeatureStatus(input.Feature)
	if err != nil {
		return errorResult(fmt.Sprintf("getting feature %s: %s", input.Feature, err)), featureStatusOutput{}, nil
	}
	return nil, featureToOutput(snapshot), nil
}

func (s *Server) handleNextTask(_ context.Context, _ *gomcp.CallToolRequest, input nextTaskInput) (*gomcp.CallToolResult, nextTaskOutput, error) {
	if input.Feature == "" {
		return errorResult("feature is required"), nextTaskOutput{}, nil
	}

	task, err := s.features.NextTask(input.Feature)
	if err != nil {
		return errorResult(fmt.Sprintf("finding next task in %s: %s", input.Feature, err)), nextTaskOutput{}, nil
	}
	if task == nil {
		return nil, nextTaskOutput{Message: "no task is ready to start"}, nil
	}
	out := taskToOutput(task)
	return nil, nextTaskOutput{Task: &out}, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.Feature == "" {
		return errorResult("feature is required"), updateTaskStatusOutput{}, nil
	}
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}

	var err error
	switch models.TaskStatus(input.Status) {
	case models.TaskInProgress:
		_, err = s.features.StartTask(input.Feature, input.TaskID)
	case models.TaskCompleted:
		_, err = s.features.CompleteTask(input.Feature, input.TaskID, input.Summary)
	case models.TaskSkipped:
		_, err = s.features.SkipTask(input.Feature, input.TaskID, input.Summary)
	default:
		return errorResult(fmt.Sprintf("invalid status %q: must be one of in_progress, completed, skipped", input.Status)), updateTaskStatusOutput{}, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}

	out := updateTaskStatusOutput{
		Message: fmt.Sprintf("task %s in feature %s is now %s", input.TaskID, input.Feature, input.Status),
	}
	return nil, out, nil
}

// --- Helpers ---

func featureToOutput(f *models.FeatureSnapshot) featureStatusOutput {
	out := featureStatusOutput{
		ID:       f.ID,
		Name:     f.Name,
		FullName: f.FullName,
		Phase:    string(f.Phase),
		Branch:   f.Branch,
		Progress: taskProgressOutput{
			Total:      f.Progress.Total,
			Pending:    f.Progress.Pending,
			InProgress: f.Progress.InProgress,
			Completed:  f.Progress.Completed,
			Skipped:    f.Progress.Skipped,
			Percentage: f.Progress.Percentage(),
		},
		HasSpec:  f.HasSpec,
		HasPlan:  f.HasPlan,
		HasTasks: f.HasTasks,
		HasState: f.HasState,
	}
	if !f.UpdatedAt.IsZero() {
		out.UpdatedAt = f.UpdatedAt.Format(time.RFC3339)
	}
	if f.NextAvailableTask != nil {
		task := taskToOutput(f.NextAvailableTask)
		out.NextAvailableTask = &task
	}
	return out
}

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:        t.ID,
		Name:      t.Name,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		DependsOn: t.DependsOn,
		Summary:   t.Summary,
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
