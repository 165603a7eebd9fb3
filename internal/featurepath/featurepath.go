// Package featurepath provides shared feature directory naming and path
// resolution. This package exists to avoid import cycles between core
// and storage.
package featurepath

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SpecifyDirName is the project marker directory. A directory containing
// it is a projspec project root.
const SpecifyDirName = ".specify"

// ConfigFileName is the project configuration file inside SpecifyDirName.
const ConfigFileName = "config.yaml"

// Artifact file names inside a feature directory.
const (
	StateFileName = "state.yaml"
	SpecFileName  = "spec.md"
	PlanFileName  = "plan.md"
	TasksFileName = "tasks.md"
)

// DirPattern matches feature directory names: a three-digit number
// followed by a hyphenated lowercase slug (e.g. "001-user-auth").
var DirPattern = regexp.MustCompile(`^(\d{3})-[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsFeatureDir reports whether name is a valid feature directory name.
func IsFeatureDir(name string) bool {
	return DirPattern.MatchString(name)
}

// ParseDirName splits a feature directory name into its number and slug.
// Returns ok=false when name does not match DirPattern.
func ParseDirName(name string) (number int, slug string, ok bool) {
	m := DirPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return number, name[len(m[1])+1:], true
}

// DirName formats a feature number and slug into a directory name.
func DirName(number int, slug string) string {
	return fmt.Sprintf("%03d-%s", number, slug)
}

// StatePath returns the state file path for a feature directory.
func StatePath(featureDir string) string {
	return filepath.Join(featureDir, StateFileName)
}

// SpecPath returns the spec document path for a feature directory.
func SpecPath(featureDir string) string {
	return filepath.Join(featureDir, SpecFileName)
}

// PlanPath returns the plan document path for a feature directory.
func PlanPath(featureDir string) string {
	return filepath.Join(featureDir, PlanFileName)
}

// TasksPath returns the tasks document path for a feature directory.
func TasksPath(featureDir string) string {
	return filepath.Join(featureDir, TasksFileName)
}

// FeatureFromPath returns the feature directory name when path lies
// inside a feature directory under a "specs" segment (e.g.
// "/repo/specs/001-user-auth/tasks.md" yields "001-user-auth").
// Returns "" when the path does not point into a feature directory.
func FeatureFromPath(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] != "specs" {
			continue
		}
		if IsFeatureDir(segments[i+1]) {
			return segments[i+1]
		}
	}
	return ""
}
