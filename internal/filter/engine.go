// Package filter implements the episode filtering engine.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"podfilter/internal/model"
)

// RulePatternError reports a rule whose regex pattern failed to compile.
type RulePatternError struct {
	RuleID  int64
	Pattern string
	Err     error
}

func (e *RulePatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q in rule %d: %v", e.Pattern, e.RuleID, e.Err)
}

func (e *RulePatternError) Unwrap() error {
	return e.Err
}

// Apply evaluates rules against each episode independently and returns
// the episodes that survive, preserving input order. Inputs are never
// mutated.
//
// Rules are evaluated in list order. A matching exclude rule drops the
// episode and stops evaluation for it, so no later rule can bring it
// back; a matching include rule keeps it included and evaluation
// continues. Inactive rules are skipped. Rules with an unrecognized
// type never match, and a rule without an action excludes.
func Apply(episodes []model.Episode, rules []model.FilterRule) ([]model.Episode, error) {
	regexps, err := compilePatterns(rules)
	if err != nil {
		return nil, err
	}

	var kept []model.Episode
	for _, ep := range episodes {
		if evaluate(ep, rules, regexps) {
			kept = append(kept, ep)
		}
	}
	return kept, nil
}

func evaluate(ep model.Episode, rules []model.FilterRule, regexps map[int]*regexp.Regexp) bool {
	shouldInclude := true

	for i, rule := range rules {
		if !rule.IsActive {
			continue
		}

		var matches bool
		switch rule.RuleType {
		case model.RuleTitleContains:
			matches = containsFold(ep.Title, rule.Pattern)
		case model.RuleTitleRegex:
			matches = regexps[i].MatchString(ep.Title)
		case model.RuleDescriptionContains:
			matches = containsFold(ep.Description, rule.Pattern)
		}

		if !matches {
			continue
		}

		action := rule.Action
		if action == "" {
			action = model.ActionExclude
		}
		if action == model.ActionExclude {
			return false
		}
		if action == model.ActionInclude {
			shouldInclude = true
		}
	}

	return shouldInclude
}

// compilePatterns compiles every active regex rule once up front, keyed
// by the rule's position in the list.
func compilePatterns(rules []model.FilterRule) (map[int]*regexp.Regexp, error) {
	var regexps map[int]*regexp.Regexp
	for i, rule := range rules {
		if !rule.IsActive || rule.RuleType != model.RuleTitleRegex {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, &RulePatternError{RuleID: rule.ID, Pattern: rule.Pattern, Err: err}
		}
		if regexps == nil {
			regexps = make(map[int]*regexp.Regexp)
		}
		regexps[i] = re
	}
	return regexps, nil
}

func containsFold(text, pattern string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(pattern))
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
