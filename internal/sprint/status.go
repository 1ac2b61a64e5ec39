// Package sprint provides read-only queries over sprint-status.yaml.
//
// The engine never writes this file: agent sessions update it themselves,
// and the orchestrator re-reads it between sessions to decide what runs
// next. All queries ignore keys that do not look like story keys
// (section headers, metadata, epic markers).
package sprint

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusFile is the sprint status path relative to the project root.
const StatusFile = "_bmad-output/implementation-artifacts/sprint-status.yaml"

// Story status values as written by the agent sessions.
const (
	StatusBacklog     = "backlog"
	StatusReadyForDev = "ready-for-dev"
	StatusInProgress  = "in-progress"
	StatusReview      = "review"
	StatusDone        = "done"
)

// actionablePriority orders the nextActionable passes. A story in a lower
// priority status must never be returned while a higher one exists.
var actionablePriority = []string{
	StatusInProgress,
	StatusReview,
	StatusReadyForDev,
	StatusBacklog,
}

var (
	storyKeyRE  = regexp.MustCompile(`^\d+-\d+-`)
	storyFullRE = regexp.MustCompile(`^\d+-\d+-.+`)
	epicKeyRE   = regexp.MustCompile(`^epic-\d+$`)
)

// Status holds one loaded snapshot of the sprint status record.
type Status struct {
	development map[string]string
}

// Load reads and parses the sprint status file at path.
func Load(path string) (*Status, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sprint status: %w", err)
	}
	return Parse(raw)
}

// Parse parses raw YAML into a Status snapshot. Non-string status values
// are stringified; a missing development_status section yields an empty
// snapshot, not an error.
func Parse(raw []byte) (*Status, error) {
	var doc struct {
		DevelopmentStatus map[string]interface{} `yaml:"development_status"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse sprint status: %w", err)
	}

	dev := make(map[string]string, len(doc.DevelopmentStatus))
	for key, value := range doc.DevelopmentStatus {
		dev[key] = fmt.Sprint(value)
	}
	return &Status{development: dev}, nil
}

// StoryStatus returns the status string for a story key, or "unknown".
func (s *Status) StoryStatus(key string) string {
	if status, ok := s.development[key]; ok {
		return status
	}
	return "unknown"
}

// NextActionable returns the highest-priority actionable story as
// (key, status). Priority: in-progress > review > ready-for-dev > backlog.
// Only keys matching the story key shape qualify. Stories sharing a status
// are returned in an unspecified order, but a lower-priority story is
// never returned while a higher-priority one exists.
func (s *Status) NextActionable() (key, status string, ok bool) {
	for _, target := range actionablePriority {
		for k, st := range s.development {
			if storyKeyRE.MatchString(k) && st == target {
				return k, target, true
			}
		}
	}
	return "", "", false
}

// DoneStories returns all story keys with status done, sorted by
// (epic, story) numeric descending, most recently numbered first.
func (s *Status) DoneStories() []string {
	var keys []string
	for k, st := range s.development {
		if storyKeyRE.MatchString(k) && st == StatusDone {
			keys = append(keys, k)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		ei, si := storyNumbers(keys[i])
		ej, sj := storyNumbers(keys[j])
		if ei != ej {
			return ei > ej
		}
		if si != sj {
			return si > sj
		}
		return keys[i] > keys[j]
	})
	return keys
}

// CountEpics returns (total, done) epic counts. The anchor in the key
// pattern excludes keys like "epic-1-retrospective".
func (s *Status) CountEpics() (total, done int) {
	for k, st := range s.development {
		if epicKeyRE.MatchString(k) {
			total++
			if st == StatusDone {
				done++
			}
		}
	}
	return total, done
}

// CountStories returns (total, done) story counts.
func (s *Status) CountStories() (total, done int) {
	for k, st := range s.development {
		if storyFullRE.MatchString(k) {
			total++
			if st == StatusDone {
				done++
			}
		}
	}
	return total, done
}

// Stats is a dashboard-ready summary of the sprint status.
type Stats struct {
	TotalEpics   int
	DoneEpics    int
	TotalStories int
	DoneStories  int
}

// Stats returns the epic and story counters in one call.
func (s *Status) Stats() Stats {
	te, de := s.CountEpics()
	ts, ds := s.CountStories()
	return Stats{TotalEpics: te, DoneEpics: de, TotalStories: ts, DoneStories: ds}
}

// StoryIDFromKey extracts the epic.story id from a story key:
// "1-3-stock-search" → "1.3". Keys without two segments pass through.
func StoryIDFromKey(key string) string {
	parts := strings.Split(key, "-")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return key
}

// storyNumbers parses the two leading numeric segments of a story key.
// Malformed keys sort as (0, 0).
func storyNumbers(key string) (epic, story int) {
	parts := strings.Split(key, "-")
	if len(parts) < 2 {
		return 0, 0
	}
	e, err1 := strconv.Atoi(parts[0])
	s, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return e, s
}
