package core

import (
	"os"
	"regexp"
	"strings"

	"github.com/valter-silva-au/projspec/pkg/models"
)

// Patterns recognised by the tasks.md extractor. Field lines accept
// optional bold markers, so both "Status: done" and "**Status**: done"
// match.
var (
	taskHeaderPattern   = regexp.MustCompile(`^##\s+(T\d{3})[\s:\-]+(.+)$`)
	taskCheckboxPattern = regexp.MustCompile(`^-\s*\[([ xX])\]\s*(T\d{3})[\s:\-]+(.+)$`)
	taskStatusPattern   = regexp.MustCompile(`(?i)\*{0,2}Status\*{0,2}:\s*(\w+)`)
	taskPriorityPattern = regexp.MustCompile(`(?i)\*{0,2}Priority\*{0,2}:\s*(P[123])`)
	taskDependsPattern  = regexp.MustCompile(`(?i)\*{0,2}Depends?(?:\s*on)?\*{0,2}:\s*(T\d{3}(?:\s*,\s*T\d{3})*)`)
)

// ExtractTasks reconstructs an ordered task list from a semi-structured
// tasks.md document. It is the fallback used when a feature has no
// structured state file.
//
// A task starts at a heading ("## T001: Name", "## T001 - Name") or a
// checkbox item ("- [ ] T001: Name"); a checked box means completed.
// Lines between task starts may carry Status, Priority, and Depends on
// fields in any order ("Depends:" works as a short form); when a field repeats, the last match wins, and
// unrecognised status values are ignored. Tasks that fail validation
// after assembly (a malformed name, an invalid dependency id) are
// dropped rather than failing the whole document, so a half-written
// tasks.md still yields whatever tasks it does describe.
func ExtractTasks(content string) []models.Task {
	var tasks []models.Task
	var current *models.Task

	flush := func() {
		if current == nil {
			return
		}
		current.ApplyDefaults()
		if err := current.Validate(); err == nil {
			tasks = append(tasks, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := taskHeaderPattern.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &models.Task{
				ID:     m[1],
				Name:   strings.TrimSpace(m[2]),
				Status: models.TaskPending,
			}
			continue
		}

		if m := taskCheckboxPattern.FindStringSubmatch(trimmed); m != nil {
			flush()
			status := models.TaskPending
			if strings.EqualFold(m[1], "x") {
				status = models.TaskCompleted
			}
			current = &models.Task{
				ID:     m[2],
				Name:   strings.TrimSpace(m[3]),
				Status: status,
			}
			continue
		}

		if current == nil {
			continue
		}

		if m := taskStatusPattern.FindStringSubmatch(line); m != nil {
			status := models.TaskStatus(strings.ToLower(m[1]))
			if models.IsValidTaskStatus(status) {
				current.Status = status
			}
		}
		if m := taskPriorityPattern.FindStringSubmatch(line); m != nil {
			current.Priority = models.TaskPriority(strings.ToUpper(m[1]))
		}
		if m := taskDependsPattern.FindStringSubmatch(line); m != nil {
			var deps []string
			for _, dep := range strings.Split(m[1], ",") {
				deps = append(deps, strings.TrimSpace(dep))
			}
			current.DependsOn = deps
		}
	}

	flush()
	return tasks
}

// ExtractTasksFromFile reads a tasks.md document and extracts its tasks.
// A missing or unreadable file yields an empty list, matching the
// best-effort contract of the extractor.
func ExtractTasksFromFile(path string) []models.Task {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading task documents from managed feature directories
	if err != nil {
		return nil
	}
	return ExtractTasks(string(data))
}
