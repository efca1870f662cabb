package storage

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/rulesmith/internal/common"
)

// encodeList joins a list for storage. Entries are trimmed and blanks dropped.
// Lists are stored comma separated, so entries must not contain commas;
// validateList rejects them before a write. Older clients sent "all" split into single characters; that shape is folded
// back into "all".
func encodeList(values []string) string {
	if len(values) == 0 {
		return ""
	}

	if len(values) > 1 {
		allSingle := true
		for _, v := range values {
			if len(v) != 1 {
				allSingle = false
				break
			}
		}
		if allSingle && strings.Join(values, "") == "all" {
			return "all"
		}
	}

	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return strings.Join(cleaned, ",")
}

// decodeList splits a stored list. The result is never nil.
func decodeList(stored string) []string {
	out := []string{}
	for _, part := range strings.Split(stored, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// isConstraintViolation reports whether err is a SQLite uniqueness or key violation.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// staleRule marks a lost race on a rule row as retryable.
func staleRule(ruleID string, cause error) error {
	if cause != nil {
		return common.Retryable(&staleRuleError{ruleID: ruleID, cause: cause})
	}
	return common.Retryable(&staleRuleError{ruleID: ruleID})
}

type staleRuleError struct {
	cause  error
	ruleID string
}

func (e *staleRuleError) Error() string {
	if e.cause != nil {
		return common.ErrStaleRule.Error() + ": rule " + e.ruleID + ": " + e.cause.Error()
	}
	return common.ErrStaleRule.Error() + ": rule " + e.ruleID
}

func (e *staleRuleError) Unwrap() error {
	return common.ErrStaleRule
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
