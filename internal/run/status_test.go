package run

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fleetfix/internal/dispatcher/mocks"
	"github.com/mattjoyce/fleetfix/internal/remediation"
)

func remediationFixture() *remediation.Remediation {
	sysA := remediation.System{
		ID: "sys-a", Hostname: "a.example.com",
		ExecutorID: "exec-1", ExecutorName: "Satellite 1", ExecutorType: remediation.ExecutorTypeSatellite,
	}
	sysB := remediation.System{
		ID: "sys-b", Hostname: "b.example.com",
		ExecutorID: "exec-1", ExecutorName: "Satellite 1", ExecutorType: remediation.ExecutorTypeSatellite,
	}
	sysC := remediation.System{
		ID: "sys-c", Hostname: "c.example.com",
		ExecutorID: "exec-2", ExecutorName: "Direct", ExecutorType: remediation.ExecutorTypeRHC,
	}
	sysD := remediation.System{
		ID: "sys-d", Hostname: "d.example.com",
		ExecutorID: "exec-3", ExecutorName: "Legacy", ExecutorType: "smart_proxy",
	}

	return &remediation.Remediation{
		ID: "rem-1", Name: "fix all the things", AccountNumber: "654321",
		Issues: []remediation.Issue{
			{ID: "issue-1", Systems: []remediation.System{sysA, sysC}},
			{ID: "issue-2", Systems: []remediation.System{sysB, sysA, sysD}}, // sysA repeated
		},
	}
}

func TestGetConnectionStatusGroupsAndResolves(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	// Only supported executors are queried; exec-3 is an unknown type.
	client.EXPECT().
		ConnectionStatus(gomock.Any(), "654321", []string{"exec-1", "exec-2"}).
		Return(map[string]remediation.ConnectionState{
			"exec-1": remediation.ConnectionConnected,
		}, nil)

	svc := newTestService(&fakeStore{}, client)
	snapshot, err := svc.GetConnectionStatus(context.Background(), remediationFixture(), "654321")

	require.NoError(t, err)
	require.Len(t, snapshot, 3)

	// Ordered by executor id.
	assert.Equal(t, "exec-1", snapshot[0].ID)
	assert.Equal(t, "exec-2", snapshot[1].ID)
	assert.Equal(t, "exec-3", snapshot[2].ID)

	assert.Equal(t, remediation.ConnectionConnected, snapshot[0].Status)
	assert.Equal(t, remediation.ConnectionDisconnected, snapshot[1].Status)
	assert.Equal(t, remediation.ConnectionUnsupported, snapshot[2].Status)

	// sys-a appears in two issues but is counted once, systems sorted by
	// hostname.
	require.Len(t, snapshot[0].Systems, 2)
	assert.Equal(t, "a.example.com", snapshot[0].Systems[0].Hostname)
	assert.Equal(t, "b.example.com", snapshot[0].Systems[1].Hostname)
}

func TestGetConnectionStatusAllUnsupportedSkipsQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rem := &remediation.Remediation{
		ID: "rem-1",
		Issues: []remediation.Issue{{
			ID: "issue-1",
			Systems: []remediation.System{{
				ID: "sys-d", Hostname: "d.example.com",
				ExecutorID: "exec-3", ExecutorType: "smart_proxy",
			}},
		}},
	}

	// No ConnectionStatus expectation: the client must not be called.
	client := mocks.NewMockClient(ctrl)

	svc := newTestService(&fakeStore{}, client)
	snapshot, err := svc.GetConnectionStatus(context.Background(), rem, "654321")

	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, remediation.ConnectionUnsupported, snapshot[0].Status)
}

func TestGetConnectionStatusClientError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		ConnectionStatus(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("dispatcher down"))

	svc := newTestService(&fakeStore{}, client)
	_, err := svc.GetConnectionStatus(context.Background(), remediationFixture(), "654321")

	assert.Error(t, err)
}
