package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File is the root object parsed from a service definition file (service.yml).
// It mirrors the file's top-level keys; unknown keys are ignored on parse and
// left untouched by the text patcher.
type File struct {
	Service     string            `yaml:"service"`
	Stages      map[string]string `yaml:"stages" validate:"omitempty,dive,required"`
	Datamodel   Datamodel         `yaml:"datamodel" validate:"omitempty,dive,required"`
	Secret      *string           `yaml:"secret"`
	DisableAuth bool              `yaml:"disableAuth"`
}

// Datamodel holds the ordered schema payload paths. The definition file may
// spell it as a single string or a sequence of strings.
type Datamodel []string

// UnmarshalYAML accepts both scalar and sequence forms.
func (d *Datamodel) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*d = Datamodel{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*d = Datamodel(many)
		return nil
	default:
		return fmt.Errorf("datamodel must be a path or a list of paths (line %d)", value.Line)
	}
}
