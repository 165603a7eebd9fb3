package cli

import (
	"github.com/valter-silva-au/projspec/internal/core"
	"github.com/valter-silva-au/projspec/internal/hooks"
	"github.com/valter-silva-au/projspec/internal/integration"
	"github.com/valter-silva-au/projspec/internal/observability"
	"github.com/valter-silva-au/projspec/internal/storage"
	"github.com/valter-silva-au/projspec/pkg/models"
)

// Service instances, set during application wiring in app.go. Commands
// that require one check for nil and fail with a clear message, except
// init and the hook commands which must work without a project.
var (
	ProjectRoot string
	Config      *models.ProjectConfig
	Locator     *core.Locator

	Features    core.FeatureService
	Status      core.StatusService
	Store       storage.FeatureStore
	ProjectInit core.ProjectInitializer

	Git integration.Git

	EventLog    observability.EventLog
	Relay       observability.Relay
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine

	Tracker *hooks.SessionTracker
)
