package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ActionType string

const (
	ActionSetCategory ActionType = "set_category"
	ActionAddTags     ActionType = "add_tags"
	ActionSetAmount   ActionType = "set_amount"
)

type CriterionType string

const (
	CriterionDescriptionExact    CriterionType = "description_exact"
	CriterionDescriptionContains CriterionType = "description_contains"
	CriterionCategoryEquals      CriterionType = "category_equals"
)

var (
	actionTypes    = []ActionType{ActionSetCategory, ActionAddTags, ActionSetAmount}
	criterionTypes = []CriterionType{CriterionDescriptionExact, CriterionDescriptionContains, CriterionCategoryEquals}
)

// Rule transforms transactions matching a criterion. Higher priority rules
// run first.
type Rule struct {
	ID             int64
	Name           string
	Action         ActionType
	Criterion      CriterionType
	CriterionValue string
	ActionValue    string
	Priority       int
	Active         bool
	TagIDs         []int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RuleParams holds the fields accepted when creating a rule. A nil Active
// means active.
type RuleParams struct {
	Name           string        `json:"name" yaml:"name"`
	Action         ActionType    `json:"action" yaml:"action"`
	Criterion      CriterionType `json:"criterion" yaml:"criterion"`
	CriterionValue string        `json:"criterion_value" yaml:"criterion_value"`
	ActionValue    string        `json:"action_value" yaml:"action_value"`
	Priority       int           `json:"priority" yaml:"priority"`
	Active         *bool         `json:"active,omitempty" yaml:"active,omitempty"`
	TagIDs         []int64       `json:"tag_ids,omitempty" yaml:"tag_ids,omitempty"`
}

// RulePatch is a partial update; nil fields are left untouched.
type RulePatch struct {
	Name           *string        `json:"name,omitempty"`
	Action         *ActionType    `json:"action,omitempty"`
	Criterion      *CriterionType `json:"criterion,omitempty"`
	CriterionValue *string        `json:"criterion_value,omitempty"`
	ActionValue    *string        `json:"action_value,omitempty"`
	Priority       *int           `json:"priority,omitempty"`
	Active         *bool          `json:"active,omitempty"`
	TagIDs         *[]int64       `json:"tag_ids,omitempty"`
}

// NewRule builds and validates a rule from params.
func NewRule(p RuleParams) (*Rule, error) {
	r := &Rule{
		Name:           strings.TrimSpace(p.Name),
		Action:         p.Action,
		Criterion:      p.Criterion,
		CriterionValue: p.CriterionValue,
		ActionValue:    p.ActionValue,
		Priority:       p.Priority,
		Active:         p.Active == nil || *p.Active,
		TagIDs:         slices.Clone(p.TagIDs),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ApplyPatch copies the non-nil fields of p into r and re-validates.
func (r *Rule) ApplyPatch(p RulePatch) error {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.Action != nil {
		r.Action = *p.Action
	}
	if p.Criterion != nil {
		r.Criterion = *p.Criterion
	}
	if p.CriterionValue != nil {
		r.CriterionValue = *p.CriterionValue
	}
	if p.ActionValue != nil {
		r.ActionValue = *p.ActionValue
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
	if p.TagIDs != nil {
		r.TagIDs = slices.Clone(*p.TagIDs)
	}
	return r.Validate()
}

// Validate checks that the rule can be evaluated and applied.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return NewValidationError("rule name is required")
	}
	if !slices.Contains(actionTypes, r.Action) {
		return NewValidationError("invalid action %q", r.Action)
	}
	if !slices.Contains(criterionTypes, r.Criterion) {
		return NewValidationError("invalid criterion %q", r.Criterion)
	}
	if r.CriterionValue == "" {
		return NewValidationError("criterion value is required")
	}
	switch r.Action {
	case ActionSetCategory:
		if strings.TrimSpace(r.ActionValue) == "" {
			return NewValidationError("set_category requires a category")
		}
	case ActionSetAmount:
		amount, err := decimal.NewFromString(strings.TrimSpace(r.ActionValue))
		if err != nil {
			return WrapValidation(err, "set_amount requires a numeric value, got %q", r.ActionValue)
		}
		if amount.IsNegative() {
			return NewValidationError("set_amount requires a non-negative value, got %s", r.ActionValue)
		}
	case ActionAddTags:
		ids, err := r.Tags()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return NewValidationError("add_tags requires at least one tag")
		}
	}
	return nil
}

// Tags returns the tag ids an add_tags rule attaches. Explicit TagIDs win over
// the JSON list stored in ActionValue.
func (r *Rule) Tags() ([]int64, error) {
	if len(r.TagIDs) > 0 {
		return r.TagIDs, nil
	}
	return ParseTagIDs(r.ActionValue)
}

// ParseTagIDs parses a JSON array of tag ids such as "[1, 2]". An empty string
// yields no ids.
func ParseTagIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, WrapValidation(err, "invalid tag list %q", s)
	}
	return ids, nil
}

// FormatTagIDs is the inverse of ParseTagIDs.
func FormatTagIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (r *Rule) Clone() *Rule {
	c := *r
	c.TagIDs = slices.Clone(r.TagIDs)
	return &c
}
