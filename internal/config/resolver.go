package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResolveStep names one stage of the scene resolution precedence.
type ResolveStep string

const (
	// StepExplicit uses the caller-supplied scene id.
	StepExplicit ResolveStep = "explicit"
	// StepKeyword matches the event title against the keyword rules.
	StepKeyword ResolveStep = "keyword"
	// StepDefault uses the event's configured default scene.
	StepDefault ResolveStep = "default"
	// StepPlaceholder falls back to the singleton placeholder scene.
	StepPlaceholder ResolveStep = "placeholder"
)

// KeywordRule maps a substring of an event title to a target scene name
// fragment. Rules are ordered; the first title match wins.
type KeywordRule struct {
	Keyword string `yaml:"keyword"`
	Scene   string `yaml:"scene"`
}

// ResolverConfig configures the scene resolver. The precedence order is
// configurable because source variants disagree on it; the default is the
// most complete ordering.
type ResolverConfig struct {
	Order    []ResolveStep `yaml:"order"`
	Keywords []KeywordRule `yaml:"keywords"`
}

// DefaultResolverConfig returns the built-in precedence and keyword table.
// The keywords cover the seeded cosmic event titles.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Order: []ResolveStep{StepExplicit, StepKeyword, StepDefault, StepPlaceholder},
		Keywords: []KeywordRule{
			{Keyword: "쿼크", Scene: "Scene 1"},
			{Keyword: "원자", Scene: "Scene 2"},
			{Keyword: "은하", Scene: "Scene 3"},
		},
	}
}

// LoadResolverFile reads a resolver configuration from a YAML file.
// Omitted fields fall back to the defaults.
func LoadResolverFile(path string) (ResolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResolverConfig{}, err
	}

	rc := ResolverConfig{}
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return ResolverConfig{}, err
	}

	def := DefaultResolverConfig()
	if len(rc.Order) == 0 {
		rc.Order = def.Order
	}
	if len(rc.Keywords) == 0 {
		rc.Keywords = def.Keywords
	}

	for _, step := range rc.Order {
		switch step {
		case StepExplicit, StepKeyword, StepDefault, StepPlaceholder:
		default:
			return ResolverConfig{}, fmt.Errorf("unknown resolver step: %s", step)
		}
	}
	return rc, nil
}
