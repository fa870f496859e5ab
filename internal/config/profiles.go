package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentProfile overrides per-agent model parameters. Zero values mean
// "use the service-wide default".
type AgentProfile struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type profilesFile struct {
	Agents map[string]AgentProfile `yaml:"agents"`
}

// LoadAgentProfiles reads optional per-agent overrides from a YAML file.
// An empty path yields an empty map, not an error.
func LoadAgentProfiles(path string) (map[string]AgentProfile, error) {
	if path == "" {
		return map[string]AgentProfile{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent profiles: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse agent profiles: %w", err)
	}
	if file.Agents == nil {
		file.Agents = map[string]AgentProfile{}
	}
	return file.Agents, nil
}
