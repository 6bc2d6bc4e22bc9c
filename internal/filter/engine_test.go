package filter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"podfilter/internal/model"
)

func episodes(titles ...string) []model.Episode {
	var eps []model.Episode
	for _, title := range titles {
		eps = append(eps, model.Episode{Title: title})
	}
	return eps
}

func titlesOf(eps []model.Episode) []string {
	var titles []string
	for _, ep := range eps {
		titles = append(titles, ep.Title)
	}
	return titles
}

func rule(rt model.RuleType, pattern string, action model.RuleAction) model.FilterRule {
	return model.FilterRule{RuleType: rt, Pattern: pattern, Action: action, IsActive: true}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		episodes []model.Episode
		rules    []model.FilterRule
		want     []string
	}{
		{
			name:     "no rules keeps everything in order",
			episodes: episodes("First", "Second", "Third"),
			rules:    nil,
			want:     []string{"First", "Second", "Third"},
		},
		{
			name:     "title contains exclude",
			episodes: episodes("Learn X", "Gardening"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "x", model.ActionExclude),
			},
			want: []string{"Gardening"},
		},
		{
			name:     "title contains is case insensitive",
			episodes: episodes("BONUS Episode", "Regular Episode"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "bonus", model.ActionExclude),
			},
			want: []string{"Regular Episode"},
		},
		{
			name:     "exclude wins over later include on same pattern",
			episodes: episodes("Extra Show", "Other Show"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "extra", model.ActionExclude),
				rule(model.RuleTitleContains, "extra", model.ActionInclude),
			},
			want: []string{"Other Show"},
		},
		{
			name:     "include then exclude drops",
			episodes: episodes("Extra Show", "Other Show"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "extra", model.ActionInclude),
				rule(model.RuleTitleContains, "extra", model.ActionExclude),
			},
			want: []string{"Other Show"},
		},
		{
			name:     "exclude short-circuits before later include",
			episodes: episodes("Promo: Extra Show"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "promo", model.ActionExclude),
				rule(model.RuleTitleContains, "extra", model.ActionInclude),
			},
			want: nil,
		},
		{
			name:     "inactive rules have no effect",
			episodes: episodes("Learn X", "Gardening"),
			rules: []model.FilterRule{
				{RuleType: model.RuleTitleContains, Pattern: "x", Action: model.ActionExclude, IsActive: false},
				{RuleType: model.RuleTitleRegex, Pattern: "[broken", Action: model.ActionExclude, IsActive: false},
			},
			want: []string{"Learn X", "Gardening"},
		},
		{
			name:     "regex is case insensitive and unanchored",
			episodes: episodes("My EP42 Show", "Season Finale"),
			rules: []model.FilterRule{
				rule(model.RuleTitleRegex, `ep\d+`, model.ActionExclude),
			},
			want: []string{"Season Finale"},
		},
		{
			name: "description contains with empty description",
			episodes: []model.Episode{
				{Title: "With Notes", Description: "Sponsored segment inside"},
				{Title: "No Notes"},
			},
			rules: []model.FilterRule{
				rule(model.RuleDescriptionContains, "sponsored", model.ActionExclude),
			},
			want: []string{"No Notes"},
		},
		{
			name:     "missing action defaults to exclude",
			episodes: episodes("Learn X", "Gardening"),
			rules: []model.FilterRule{
				{RuleType: model.RuleTitleContains, Pattern: "x", IsActive: true},
			},
			want: []string{"Gardening"},
		},
		{
			name:     "unrecognized action has no effect",
			episodes: episodes("Learn X"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "x", model.RuleAction("quarantine")),
			},
			want: []string{"Learn X"},
		},
		{
			name:     "unknown rule type never matches",
			episodes: episodes("Learn X"),
			rules: []model.FilterRule{
				rule(model.RuleType("author_contains"), "x", model.ActionExclude),
			},
			want: []string{"Learn X"},
		},
		{
			name:     "rule order decides between episodes independently",
			episodes: episodes("Trailer: New Season", "Interview Special", "Trailer Talk"),
			rules: []model.FilterRule{
				rule(model.RuleTitleContains, "trailer", model.ActionExclude),
				rule(model.RuleTitleContains, "talk", model.ActionInclude),
			},
			want: []string{"Interview Special"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.episodes, tt.rules)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, titlesOf(got)); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyInvalidRegex(t *testing.T) {
	rules := []model.FilterRule{
		{ID: 7, RuleType: model.RuleTitleRegex, Pattern: "[invalid", Action: model.ActionExclude, IsActive: true},
	}

	_, err := Apply(episodes("anything"), rules)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var patternErr *RulePatternError
	if !errors.As(err, &patternErr) {
		t.Fatalf("expected *RulePatternError, got %T: %v", err, err)
	}
	if diff := cmp.Diff(int64(7), patternErr.RuleID); diff != "" {
		t.Errorf("RuleID mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("[invalid", patternErr.Pattern); diff != "" {
		t.Errorf("Pattern mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	eps := episodes("Keep Me", "Drop Me")
	rules := []model.FilterRule{
		rule(model.RuleTitleContains, "drop", model.ActionExclude),
	}

	if _, err := Apply(eps, rules); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"Keep Me", "Drop Me"}, titlesOf(eps)); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestValidateRegex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{name: "valid simple", pattern: "bonus", wantErr: false},
		{name: "valid alternation", pattern: "trailer|teaser|promo", wantErr: false},
		{name: "valid escape", pattern: `ep\d+`, wantErr: false},
		{name: "invalid unclosed bracket", pattern: "[invalid", wantErr: true},
		{name: "invalid bad repetition", pattern: "*bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegex(tt.pattern)
			gotErr := err != nil
			if diff := cmp.Diff(tt.wantErr, gotErr); diff != "" {
				t.Errorf("ValidateRegex() error mismatch (-want +got):\n%s\nerr: %v", diff, err)
			}
		})
	}
}
