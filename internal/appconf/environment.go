package appconf

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment is the deployment the process runs in.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFlagToEnvironment maps the -env flag onto an Environment. Unknown
// values are treated as development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// UnmarshalYAML reads the environment from its name.
func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	*e = EnvFlagToEnvironment(name)
	return nil
}
