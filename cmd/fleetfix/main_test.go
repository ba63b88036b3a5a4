package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCLIUnknownCommand(t *testing.T) {
	assert.Equal(t, 1, runCLI([]string{"bogus"}))
}

func TestRunCLINoArgs(t *testing.T) {
	assert.Equal(t, 1, runCLI([]string{}))
}

func TestRunCLIHelp(t *testing.T) {
	assert.Equal(t, 0, runCLI([]string{"help"}))
}

func TestRunCLIVersion(t *testing.T) {
	assert.Equal(t, 0, runCLI([]string{"version"}))
	assert.Equal(t, 0, runCLI([]string{"version", "--json"}))
	assert.Equal(t, 1, runCLI([]string{"version", "extra-arg"}))
}

func TestPlaybookCheck(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yml")
	require.NoError(t, os.WriteFile(valid, []byte(`
- name: fix things
  hosts: [a.example.com]
  tasks:
    - name: update
      shell: yum update -y
`), 0o644))

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(t, os.WriteFile(invalid, []byte(`
- name: broken
  tasks: []
`), 0o644))

	assert.Equal(t, 0, runCLI([]string{"playbook", "check", valid}))
	assert.Equal(t, 1, runCLI([]string{"playbook", "check", invalid}))
	assert.Equal(t, 1, runCLI([]string{"playbook", "check", filepath.Join(dir, "missing.yml")}))
	assert.Equal(t, 1, runCLI([]string{"playbook", "check"}))
}

func TestSystemStartMissingConfig(t *testing.T) {
	assert.Equal(t, 1, runCLI([]string{"system", "start", "--config", filepath.Join(t.TempDir(), "nope.yaml")}))
}
