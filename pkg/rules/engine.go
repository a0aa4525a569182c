// Package rules evaluates user-defined rules against transactions and hosts
// the rule management use cases.
package rules

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vitorcapdeville/financas/pkg/models"
)

// Matches reports whether tx satisfies the rule criterion. Comparisons are
// case-sensitive.
func Matches(rule *models.Rule, tx *models.Transaction) bool {
	switch rule.Criterion {
	case models.CriterionDescriptionExact:
		return tx.Description == rule.CriterionValue
	case models.CriterionDescriptionContains:
		return strings.Contains(tx.Description, rule.CriterionValue)
	case models.CriterionCategoryEquals:
		return tx.Category == rule.CriterionValue
	}
	return false
}

// Apply runs the rule action on tx when it matches and reports whether the
// action ran. A non-matching rule leaves tx untouched.
func Apply(rule *models.Rule, tx *models.Transaction) bool {
	if !Matches(rule, tx) {
		return false
	}

	switch rule.Action {
	case models.ActionSetCategory:
		tx.Category = rule.ActionValue
	case models.ActionAddTags:
		ids, err := rule.Tags()
		if err != nil {
			return false
		}
		for _, id := range ids {
			tx.AddTag(id)
		}
	case models.ActionSetAmount:
		amount, err := decimal.NewFromString(strings.TrimSpace(rule.ActionValue))
		if err != nil {
			return false
		}
		tx.Amount = amount
	default:
		return false
	}
	return true
}

// SortByPriority orders rules by descending priority. Ties keep their input
// order.
func SortByPriority(rules []*models.Rule) {
	slices.SortStableFunc(rules, func(a, b *models.Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
}

// ApplyAll applies every rule to tx in the given order and reports whether
// any of them ran.
func ApplyAll(rules []*models.Rule, tx *models.Transaction) bool {
	modified := false
	for _, r := range rules {
		if Apply(r, tx) {
			modified = true
		}
	}
	return modified
}
