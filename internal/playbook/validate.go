package playbook

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Validate checks that content is a playbook template this service could
// dispatch: a YAML sequence of plays where every play names its hosts and
// carries at least one task.
func Validate(content []byte) error {
	var plays []map[string]any
	if err := yaml.Unmarshal(content, &plays); err != nil {
		return fmt.Errorf("not valid YAML: %w", err)
	}
	if len(plays) == 0 {
		return fmt.Errorf("playbook has no plays")
	}

	for i, p := range plays {
		if _, ok := p["hosts"]; !ok {
			return fmt.Errorf("play %d has no hosts", i)
		}
		tasks, ok := p["tasks"].([]any)
		if !ok || len(tasks) == 0 {
			return fmt.Errorf("play %d has no tasks", i)
		}
	}
	return nil
}
