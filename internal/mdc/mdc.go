// Package mdc checks, renders and exports rule bodies in MDC format.
package mdc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/rulesmith/internal/model"
)

// Required MDC markers.
const (
	RuleHeading        = "# Rule:"
	DescriptionSection = "## Description"
	EnforcementSection = "## Enforcement"
)

const fence = "---"

// ErrNoFrontmatter is returned when content does not open with a YAML block.
var ErrNoFrontmatter = errors.New("missing or malformed YAML frontmatter")

// Check returns every structural problem found in a rule diff.
// An empty result means the diff is well formed.
func Check(diff string) []string {
	if strings.TrimSpace(diff) == "" {
		return []string{"'diff' must be a non-empty string"}
	}

	var problems []string
	if !strings.HasPrefix(strings.TrimLeft(diff, " \t\r\n"), RuleHeading) {
		problems = append(problems, "'diff' should start with '# Rule:' (MDC format)")
	}
	if !strings.Contains(diff, DescriptionSection) {
		problems = append(problems, "'diff' should contain '## Description' section (MDC format)")
	}
	if !strings.Contains(diff, EnforcementSection) {
		problems = append(problems, "'diff' should contain '## Enforcement' section (MDC format)")
	}
	return problems
}

// Frontmatter is the YAML header of an exported rule file.
type Frontmatter struct {
	Description string   `yaml:"description"`
	Globs       []string `yaml:"globs"`
	RuleType    string   `yaml:"rule_type,omitempty"`
	Scope       string   `yaml:"scope,omitempty"`
	Version     int      `yaml:"version,omitempty"`
}

// Render produces an MDC file for a rule: YAML frontmatter followed by the diff.
func Render(rule *model.Rule) ([]byte, error) {
	fm := Frontmatter{
		Description: rule.Description,
		Globs:       rule.AppliesTo,
		RuleType:    rule.RuleType,
		Scope:       rule.Scope().Label(),
		Version:     rule.Version,
	}
	if fm.Globs == nil {
		fm.Globs = []string{}
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(header)
	buf.WriteString(fence + "\n")
	buf.WriteString(strings.TrimRight(rule.Diff, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ParseFrontmatter splits an MDC file into its decoded header and body.
func ParseFrontmatter(content string) (map[string]any, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence+"\n") {
		return nil, "", ErrNoFrontmatter
	}

	rest := content[len(fence)+1:]
	if strings.HasPrefix(rest, fence+"\n") || rest == fence {
		return map[string]any{}, strings.TrimPrefix(strings.TrimPrefix(rest, fence), "\n"), nil
	}
	end := strings.Index(rest, "\n"+fence+"\n")
	if end < 0 {
		if !strings.HasSuffix(rest, "\n"+fence) {
			return nil, "", ErrNoFrontmatter
		}
		end = len(rest) - len(fence) - 1
	}

	header := rest[:end]
	body := ""
	if after := end + len(fence) + 2; after <= len(rest) {
		body = rest[after:]
	}

	fields := map[string]any{}
	if err := yaml.Unmarshal([]byte(header), &fields); err != nil {
		return nil, "", fmt.Errorf("YAML parse error: %w", err)
	}
	return fields, body, nil
}

// RequiredFields must be present and non-empty in every frontmatter block.
var RequiredFields = []string{"description", "globs"}

// Lint reports problems with an MDC file's frontmatter.
func Lint(content string) []string {
	fields, _, err := ParseFrontmatter(content)
	if err != nil {
		return []string{err.Error()}
	}

	var problems []string
	for _, name := range RequiredFields {
		if isBlank(fields[name]) {
			problems = append(problems, "Missing or empty required YAML field: "+name)
		}
	}
	return problems
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	default:
		return strings.TrimSpace(fmt.Sprint(val)) == ""
	}
}
