package model

import (
	"fmt"
	"strings"
)

// ScopeLevel is the governance breadth of a rule.
type ScopeLevel string

// Scope levels, narrowest to broadest.
const (
	ScopeMachine ScopeLevel = "machine"
	ScopeProject ScopeLevel = "project"
	ScopeTeam    ScopeLevel = "team"
	ScopeGlobal  ScopeLevel = "global"
)

// ScopeLevels lists every recognized scope level ordered by rank.
var ScopeLevels = []ScopeLevel{ScopeMachine, ScopeProject, ScopeTeam, ScopeGlobal}

// Rank orders scope levels from narrowest (0) to broadest (3).
// Unknown levels rank -1.
func (s ScopeLevel) Rank() int {
	switch s {
	case ScopeMachine:
		return 0
	case ScopeProject:
		return 1
	case ScopeTeam:
		return 2
	case ScopeGlobal:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether s is one of the recognized scope levels.
func (s ScopeLevel) IsValid() bool {
	return s.Rank() >= 0
}

// BroaderThan reports whether s governs a strictly wider audience than other.
func (s ScopeLevel) BroaderThan(other ScopeLevel) bool {
	return s.Rank() > other.Rank()
}

func (s ScopeLevel) String() string {
	return string(s)
}

// ParseScopeLevel converts a raw string into a ScopeLevel. Case is ignored;
// an empty string is not a level.
func ParseScopeLevel(raw string) (ScopeLevel, error) {
	raw = strings.TrimSpace(raw)
	level := ScopeLevel(strings.ToLower(raw))
	if !level.IsValid() {
		return "", fmt.Errorf("unknown scope level %q", raw)
	}
	return level, nil
}

// Scope pairs a level with the identifier of the governed unit.
// ID is always empty for ScopeGlobal.
type Scope struct {
	Level ScopeLevel
	ID    string
}

// Overlaps reports whether two scopes can govern the same code.
// Global overlaps everything; otherwise level and id must match.
func (s Scope) Overlaps(other Scope) bool {
	if s.Level == ScopeGlobal || other.Level == ScopeGlobal {
		return true
	}
	return s.Level == other.Level && s.ID == other.ID
}

// Label renders the scope as "level" or "level:id".
func (s Scope) Label() string {
	if s.Level == ScopeGlobal || s.ID == "" {
		return string(s.Level)
	}
	return fmt.Sprintf("%s:%s", s.Level, s.ID)
}
