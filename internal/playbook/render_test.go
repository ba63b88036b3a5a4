package playbook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

func TestName(t *testing.T) {
	now := time.UnixMilli(1462522068064)

	tests := []struct {
		remName string
		want    string
	}{
		{remName: "Fix Kernel CVEs", want: "fix-kernel-cves-1462522068064.yml"},
		{remName: "  spaced   out  ", want: "spaced-out-1462522068064.yml"},
		{remName: "weird!@#chars", want: "weirdchars-1462522068064.yml"},
		{remName: "", want: "unnamed-playbook-1462522068064.yml"},
		{remName: "!!!", want: "unnamed-playbook-1462522068064.yml"},
	}

	for _, tt := range tests {
		rem := &remediation.Remediation{Name: tt.remName}
		assert.Equal(t, tt.want, Name(rem, now), "name %q", tt.remName)
	}
}

func TestYAMLRendererOnePlayPerIssue(t *testing.T) {
	rem := &remediation.Remediation{
		ID: "rem-1",
		Issues: []remediation.Issue{
			{
				ID:         "advisor:kernel_cve",
				Resolution: "yum update -y kernel",
				Systems: []remediation.System{
					{ID: "sys-a", Hostname: "a.example.com"},
					{ID: "sys-b", Hostname: "b.example.com"},
				},
			},
			{
				ID:         "vulnerabilities:openssl",
				Resolution: "yum update -y openssl",
				Systems: []remediation.System{
					{ID: "sys-c", Hostname: "c.example.com"},
				},
			},
		},
	}

	out, err := YAMLRenderer{}.Render(context.Background(), rem)
	require.NoError(t, err)

	var plays []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &plays))
	require.Len(t, plays, 2)

	hosts, ok := plays[0]["hosts"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a.example.com", "b.example.com"}, hosts)
	assert.Equal(t, true, plays[0]["become"])

	// The rendered document passes the service's own validation.
	assert.NoError(t, Validate([]byte(out)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "valid playbook",
			content: `
- name: fix things
  hosts: [a.example.com]
  tasks:
    - name: update
      shell: yum update -y
`,
		},
		{name: "not yaml", content: "{{{", wantErr: true},
		{name: "empty document", content: "", wantErr: true},
		{name: "no plays", content: "[]", wantErr: true},
		{
			name: "play without hosts",
			content: `
- name: broken
  tasks:
    - shell: echo hi
`,
			wantErr: true,
		},
		{
			name: "play without tasks",
			content: `
- name: broken
  hosts: [a.example.com]
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
