package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/model"
)

// inputValidate checks caller-supplied input structs.
// Field names in problems use the JSON names.
var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	inputValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = inputValidate.RegisterValidation("scope_level", func(fl validator.FieldLevel) bool {
		_, err := model.ParseScopeLevel(fl.Field().String())
		return err == nil
	})
	_ = inputValidate.RegisterValidation("feedback_type", func(fl validator.FieldLevel) bool {
		_, err := model.ParseFeedbackType(fl.Field().String())
		return err == nil
	})
}

// ProposalInput is the caller-supplied content of a new proposal.
// RuleType may be omitted when RuleID names an existing rule.
type ProposalInput struct {
	ID                 string   `json:"id,omitempty" yaml:"id"`
	RuleID             string   `json:"rule_id,omitempty" yaml:"rule_id"`
	RuleType           string   `json:"rule_type" yaml:"rule_type" validate:"required_without=RuleID"`
	Description        string   `json:"description" yaml:"description" validate:"required"`
	Diff               string   `json:"diff" yaml:"diff" validate:"required"`
	SubmittedBy        string   `json:"submitted_by" yaml:"submitted_by" validate:"required"`
	Project            string   `json:"project,omitempty" yaml:"project"`
	ScopeLevel         string   `json:"scope_level,omitempty" yaml:"scope_level" validate:"omitempty,scope_level"`
	ScopeID            string   `json:"scope_id,omitempty" yaml:"scope_id"`
	ParentRuleID       string   `json:"parent_rule_id,omitempty" yaml:"parent_rule_id"`
	ReasonForChange    string   `json:"reason_for_change,omitempty" yaml:"reason_for_change"`
	References         string   `json:"references,omitempty" yaml:"references"`
	CurrentRule        string   `json:"current_rule,omitempty" yaml:"current_rule"`
	UserStory          string   `json:"user_story,omitempty" yaml:"user_story"`
	AppliesToRationale string   `json:"applies_to_rationale,omitempty" yaml:"applies_to_rationale"`
	Categories         []string `json:"categories,omitempty" yaml:"categories" validate:"dive,excludesall=0x2C"`
	Tags               []string `json:"tags,omitempty" yaml:"tags" validate:"dive,excludesall=0x2C"`
	Examples           []string `json:"examples,omitempty" yaml:"examples" validate:"dive,excludesall=0x2C"`
	AppliesTo          []string `json:"applies_to,omitempty" yaml:"applies_to" validate:"dive,excludesall=0x2C"`
}

func (in *ProposalInput) normalize() {
	in.ID = strings.TrimSpace(in.ID)
	in.RuleID = strings.TrimSpace(in.RuleID)
	in.RuleType = strings.TrimSpace(in.RuleType)
	in.Description = strings.TrimSpace(in.Description)
	in.SubmittedBy = strings.TrimSpace(in.SubmittedBy)
	in.ScopeLevel = strings.TrimSpace(in.ScopeLevel)
	in.ScopeID = strings.TrimSpace(in.ScopeID)
	in.ParentRuleID = strings.TrimSpace(in.ParentRuleID)
	if strings.TrimSpace(in.Diff) == "" {
		in.Diff = ""
	}
}

// EnhancementInput is the caller-supplied content of a new enhancement.
type EnhancementInput struct {
	Description        string   `json:"description" validate:"required"`
	SuggestedBy        string   `json:"suggested_by,omitempty"`
	Page               string   `json:"page,omitempty"`
	Project            string   `json:"project,omitempty"`
	Diff               string   `json:"diff,omitempty"`
	UserStory          string   `json:"user_story,omitempty"`
	AppliesToRationale string   `json:"applies_to_rationale,omitempty"`
	Categories         []string `json:"categories,omitempty" validate:"dive,excludesall=0x2C"`
	Tags               []string `json:"tags,omitempty" validate:"dive,excludesall=0x2C"`
	Examples           []string `json:"examples,omitempty" validate:"dive,excludesall=0x2C"`
	AppliesTo          []string `json:"applies_to,omitempty" validate:"dive,excludesall=0x2C"`
}

// FeedbackInput is reviewer commentary on a proposal.
type FeedbackInput struct {
	Type     string `json:"feedback_type" validate:"required,feedback_type"`
	UserID   string `json:"user_id,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// RulePatch lists the descriptive rule fields a caller may change in place.
// Nil fields are left untouched.
type RulePatch struct {
	Description        *string   `json:"description,omitempty"`
	Diff               *string   `json:"diff,omitempty"`
	Project            *string   `json:"project,omitempty"`
	AppliesToRationale *string   `json:"applies_to_rationale,omitempty"`
	UserStory          *string   `json:"user_story,omitempty"`
	Categories         *[]string `json:"categories,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
	Tags               *[]string `json:"tags,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
	Examples           *[]string `json:"examples,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
	AppliesTo          *[]string `json:"applies_to,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
}

// EnhancementPatch lists the descriptive enhancement fields a caller may change.
type EnhancementPatch struct {
	Description        *string   `json:"description,omitempty"`
	SuggestedBy        *string   `json:"suggested_by,omitempty"`
	Page               *string   `json:"page,omitempty"`
	Project            *string   `json:"project,omitempty"`
	Diff               *string   `json:"diff,omitempty"`
	UserStory          *string   `json:"user_story,omitempty"`
	AppliesToRationale *string   `json:"applies_to_rationale,omitempty"`
	Categories         *[]string `json:"categories,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
	Tags               *[]string `json:"tags,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
	Examples           *[]string `json:"examples,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
	AppliesTo          *[]string `json:"applies_to,omitempty" validate:"omitempty,dive,excludesall=0x2C"`
}

// inputProblems runs struct validation and renders each failure as a sentence.
func inputProblems(input any) []string {
	err := inputValidate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return problems
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	case "scope_level":
		return fmt.Sprintf("Invalid scope_level %q: must be one of %s", fe.Value(), scopeLevelNames())
	case "excludesall":
		return fmt.Sprintf("%s entries cannot contain commas, got %q", listName(fe), fe.Value())
	case "feedback_type":
		return fmt.Sprintf("invalid feedback_type %q: must be one of accept, reject, needs_changes", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// listName strips the element index from a dive failure, so tags[1] reads tags.
func listName(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}

func scopeLevelNames() string {
	names := make([]string, len(model.ScopeLevels))
	for i, level := range model.ScopeLevels {
		names[i] = level.String()
	}
	return strings.Join(names, ", ")
}

func validationFailure(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return common.NewValidationError(problems...)
}
