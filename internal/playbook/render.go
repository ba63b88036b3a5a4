package playbook

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

const (
	defaultName    = "unnamed-playbook"
	playbookSuffix = "yml"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	invalidPattern    = regexp.MustCompile(`[^\w-]`)
)

// Name builds the playbook file name for a remediation, e.g.
// "my-remediation-1462522068064.yml".
func Name(rem *remediation.Remediation, now time.Time) string {
	return fmt.Sprintf("%s-%d.%s", slug(rem.Name), now.UnixMilli(), playbookSuffix)
}

func slug(name string) string {
	result := strings.TrimSpace(strings.ToLower(name))
	result = whitespacePattern.ReplaceAllString(result, "-")
	result = invalidPattern.ReplaceAllString(result, "")
	if result == "" {
		return defaultName
	}
	return result
}

// Renderer produces the playbook text for a remediation. Template resolution
// is a collaborator concern; the core only needs the rendered document.
type Renderer interface {
	Render(ctx context.Context, rem *remediation.Remediation) (string, error)
}

// YAMLRenderer renders one play per issue, targeting the issue's systems by
// hostname.
type YAMLRenderer struct{}

type play struct {
	Name   string   `yaml:"name"`
	Hosts  []string `yaml:"hosts"`
	Become bool     `yaml:"become"`
	Tasks  []task   `yaml:"tasks"`
}

type task struct {
	Name  string `yaml:"name"`
	Shell string `yaml:"shell"`
}

func (YAMLRenderer) Render(_ context.Context, rem *remediation.Remediation) (string, error) {
	plays := make([]play, 0, len(rem.Issues))
	for _, issue := range rem.Issues {
		hosts := make([]string, 0, len(issue.Systems))
		for _, sys := range issue.Systems {
			hosts = append(hosts, sys.Hostname)
		}
		plays = append(plays, play{
			Name:   fmt.Sprintf("fix %s", issue.ID),
			Hosts:  hosts,
			Become: true,
			Tasks: []task{{
				Name:  issue.ID,
				Shell: issue.Resolution,
			}},
		})
	}

	out, err := yaml.Marshal(plays)
	if err != nil {
		return "", fmt.Errorf("render playbook for %s: %w", rem.ID, err)
	}
	return string(out), nil
}

var _ Renderer = YAMLRenderer{}
