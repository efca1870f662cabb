package mdc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/rulesmith/internal/model"
)

// ExportResult summarizes an export run.
type ExportResult struct {
	JSONPath string
	Files    []string
}

// Export writes approved_rules.json and one MDC file per rule with a body.
// Files are grouped under mdc/<project>, or mdc/<scope> when the rule has no project.
func Export(dir string, rules []model.Rule) (*ExportResult, error) {
	mdcDir := filepath.Join(dir, "mdc")
	if err := os.MkdirAll(mdcDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	if rules == nil {
		rules = []model.Rule{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rules: %w", err)
	}

	result := &ExportResult{JSONPath: filepath.Join(dir, "approved_rules.json")}
	if err := os.WriteFile(result.JSONPath, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.JSONPath, err)
	}

	for i := range rules {
		rule := &rules[i]
		if strings.TrimSpace(rule.Diff) == "" {
			slog.Debug("Skipping rule without body", "rule_id", rule.ID)
			continue
		}

		groupDir := filepath.Join(mdcDir, groupName(rule))
		if err := os.MkdirAll(groupDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", groupDir, err)
		}

		content, err := Render(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}

		ruleType := rule.RuleType
		if ruleType == "" {
			ruleType = "rule"
		}
		path := filepath.Join(groupDir, safeName(ruleType)+"_"+safeName(rule.ID)+".mdc")
		if err := os.WriteFile(path, content, 0600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		result.Files = append(result.Files, path)
	}

	slog.Info("Exported rules", "dir", dir, "rules", len(rules), "files", len(result.Files))
	return result, nil
}

func groupName(rule *model.Rule) string {
	if rule.Project != "" {
		return safeName(rule.Project)
	}
	if rule.ScopeLevel == model.ScopeGlobal || rule.ScopeID == "" {
		return string(model.ScopeGlobal)
	}
	return safeName(string(rule.ScopeLevel) + "-" + rule.ScopeID)
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_", " ", "_")

func safeName(s string) string {
	return nameReplacer.Replace(s)
}
