package run

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

func snapshotFixture() []remediation.Executor {
	return []remediation.Executor{
		{
			ID: "exec-b", Name: "Satellite B", Type: remediation.ExecutorTypeSatellite,
			Status:  remediation.ConnectionConnected,
			Systems: []remediation.System{{ID: "sys-2"}, {ID: "sys-1"}},
		},
		{
			ID: "exec-a", Name: "Satellite A", Type: remediation.ExecutorTypeSatellite,
			Status:  remediation.ConnectionDisconnected,
			Systems: []remediation.System{{ID: "sys-3"}},
		},
	}
}

func TestComputeTagDeterministic(t *testing.T) {
	first, err := ComputeTag(snapshotFixture())
	require.NoError(t, err)
	second, err := ComputeTag(snapshotFixture())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeTagOrderIndependent(t *testing.T) {
	snapshot := snapshotFixture()
	reversed := []remediation.Executor{snapshot[1], snapshot[0]}

	a, err := ComputeTag(snapshot)
	require.NoError(t, err)
	b, err := ComputeTag(reversed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeTagChangesOnReachabilityChange(t *testing.T) {
	before, err := ComputeTag(snapshotFixture())
	require.NoError(t, err)

	changed := snapshotFixture()
	changed[1].Status = remediation.ConnectionConnected
	after, err := ComputeTag(changed)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestComputeTagIsStrongQuotedHex(t *testing.T) {
	tag, err := ComputeTag(snapshotFixture())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^"[0-9a-f]{64}"$`), tag)
}

func TestValidateTag(t *testing.T) {
	snapshot := snapshotFixture()
	current, err := ComputeTag(snapshot)
	require.NoError(t, err)

	assert.NoError(t, ValidateTag(current, snapshot))
	assert.ErrorIs(t, ValidateTag("", snapshot), ErrPreconditionFailed)
	assert.ErrorIs(t, ValidateTag(`"deadbeef"`, snapshot), ErrPreconditionFailed)
}
