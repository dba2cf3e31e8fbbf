package codebook

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileVariable is the on-disk shape shared by the JSON and YAML codebook
// formats: {"SEX": {"description": "Sex", "codes": {"1": "Male"}}}.
type fileVariable struct {
	Description string            `json:"description" yaml:"description"`
	Codes       map[string]string `json:"codes" yaml:"codes"`
}

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

func (jsonLoader) Load(data []byte) (map[string]VariableDefinition, error) {
	var raw map[string]fileVariable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromFileVariables(raw), nil
}

type yamlLoader struct{}

func (yamlLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func (yamlLoader) Load(data []byte) (map[string]VariableDefinition, error) {
	var raw map[string]fileVariable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return fromFileVariables(raw), nil
}

func fromFileVariables(raw map[string]fileVariable) map[string]VariableDefinition {
	defs := make(map[string]VariableDefinition, len(raw))
	for name, v := range raw {
		codes := make(map[string]string, len(v.Codes))
		for code, label := range v.Codes {
			codes[code] = label
		}
		defs[name] = VariableDefinition{Description: v.Description, Codes: codes}
	}
	return defs
}
