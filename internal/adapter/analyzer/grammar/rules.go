package grammar

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type confusionRule struct {
	Suggestions []string `yaml:"suggestions"`
	Message     string   `yaml:"message"`
}

type ruleSet struct {
	Misspellings map[string][]string      `yaml:"misspellings"`
	Confusions   map[string]confusionRule `yaml:"confusions"`
}

func loadRules() (ruleSet, error) {
	var rs ruleSet
	if err := yaml.Unmarshal(rulesYAML, &rs); err != nil {
		return ruleSet{}, fmt.Errorf("op=grammar.loadRules: %w", err)
	}
	// dictionary lookups are case-insensitive
	lower := make(map[string][]string, len(rs.Misspellings))
	for k, v := range rs.Misspellings {
		lower[strings.ToLower(k)] = v
	}
	rs.Misspellings = lower
	return rs, nil
}
