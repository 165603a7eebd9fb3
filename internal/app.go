// Package internal provides the App struct that wires all projspec
// services together and injects them into the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/valter-silva-au/projspec/internal/cli"
	"github.com/valter-silva-au/projspec/internal/core"
	"github.com/valter-silva-au/projspec/internal/hooks"
	"github.com/valter-silva-au/projspec/internal/integration"
	"github.com/valter-silva-au/projspec/internal/observability"
	"github.com/valter-silva-au/projspec/internal/storage"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// App holds all service dependencies for projspec.
type App struct {
	Root   string
	Config *models.ProjectConfig

	Locator *core.Locator
	Store   storage.FeatureStore
	Git     integration.Git

	Features    core.FeatureService
	Status      core.StatusService
	ProjectInit core.ProjectInitializer

	EventLog    observability.EventLog
	Relay       observability.Relay
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine

	Tracker *hooks.SessionTracker
}

// NewApp creates and wires all projspec services for the project rooted
// at root. An empty root means no project was found; only the commands
// that work without one (init, hooks, version) are wired.
func NewApp(root string) (*App, error) {
	var git integration.Git
	if integration.Available() {
		git = integration.NewGit()
	}

	app := &App{
		Root:        root,
		Git:         git,
		Store:       storage.NewFeatureStore(),
		ProjectInit: core.NewProjectInitializer(git),
	}

	if root == "" {
		app.wireCLI()
		return app, nil
	}

	cfg, err := core.LoadProjectConfig(root)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	app.Locator = core.NewLocator(root, cfg)

	// --- Observability ---
	// The relay stays a no-op unless explicitly enabled; the local event
	// log is always on so metrics and alerts have data to work with.
	app.Relay = observability.NopRelay{}
	if cfg.Observability.Enabled && cfg.Observability.ServerURL != "" {
		app.Relay = observability.NewHTTPRelay(cfg.Observability.ServerURL, cfg.Observability.SourceApp)
	}
	logDir := filepath.Join(root, featureLogDir(cfg))
	eventLog, err := observability.NewJSONLEventLog(filepath.Join(logDir, "events.jsonl"))
	if err == nil {
		app.EventLog = eventLog
		app.MetricsCalc = observability.NewMetricsCalculator(eventLog)
	}
	app.AlertEngine = observability.NewAlertEngine(observability.DefaultAlertThresholds())
	app.Tracker = hooks.NewSessionTracker(logDir)

	// --- Core services ---
	var gitInfo core.GitInfo
	if git != nil {
		gitInfo = git
	}
	app.Status = core.NewStatusService(app.Locator, app.Store, gitInfo, cfg.Project.Name)

	templates := core.NewDocTemplates(app.Locator.TemplatesDir())

	var agent core.AgentContextSyncer
	if cfg.Claude.AutoUpdateContext && cfg.Claude.ContextFile != "" {
		agent = core.NewAgentContextUpdater(
			filepath.Join(root, cfg.Claude.ContextFile),
			app.Status,
			cfg.Project.Name,
		)
	}

	var events core.EventLogger
	if app.EventLog != nil {
		events = app.EventLog
	}
	app.Features = core.NewFeatureService(app.Locator, app.Store, templates, cfg.Project.Name, events, agent)

	app.wireCLI()
	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle. Safe to call when the event log was never opened.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

func (a *App) wireCLI() {
	cli.ProjectRoot = a.Root
	cli.Config = a.Config
	cli.Locator = a.Locator
	cli.Store = a.Store
	cli.Git = a.Git

	cli.Features = a.Features
	cli.Status = a.Status
	cli.ProjectInit = a.ProjectInit

	cli.EventLog = a.EventLog
	cli.Relay = a.Relay
	cli.MetricsCalc = a.MetricsCalc
	cli.AlertEngine = a.AlertEngine
	cli.Tracker = a.Tracker
}

func featureLogDir(cfg *models.ProjectConfig) string {
	if cfg.Observability.LogDir != "" {
		return cfg.Observability.LogDir
	}
	return "logs"
}

// ResolveProjectRoot determines the project root: the PROJSPEC_ROOT
// environment variable when set, otherwise the nearest ancestor of the
// working directory containing .specify/. Returns empty when no project
// is found, which is fine for init and the hook commands.
func ResolveProjectRoot() string {
	if root := os.Getenv("PROJSPEC_ROOT"); root != "" {
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	root, err := core.FindProjectRoot(cwd)
	if err != nil {
		return ""
	}
	return root
}
