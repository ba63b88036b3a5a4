package run

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fleetfix/internal/dispatcher"
	"github.com/mattjoyce/fleetfix/internal/dispatcher/mocks"
	"github.com/mattjoyce/fleetfix/internal/remediation"
	"github.com/mattjoyce/fleetfix/internal/store"
)

func createSnapshot() []remediation.Executor {
	return []remediation.Executor{
		{
			ID: "exec-1", Name: "Satellite 1", Type: remediation.ExecutorTypeSatellite,
			Status: remediation.ConnectionConnected,
			Systems: []remediation.System{
				{ID: "sys-a", Hostname: "a.example.com"},
				{ID: "sys-b", Hostname: "b.example.com"},
			},
		},
		{
			ID: "exec-2", Name: "Satellite 2", Type: remediation.ExecutorTypeSatellite,
			Status: remediation.ConnectionDisconnected,
			Systems: []remediation.System{
				{ID: "sys-c", Hostname: "c.example.com"},
			},
		},
	}
}

func createRequest() CreateRequest {
	return CreateRequest{
		Remediation: &remediation.Remediation{
			ID: "rem-1", Name: "patch kernel", AccountNumber: "654321",
			Issues: []remediation.Issue{{
				ID:         "advisor:kernel_cve",
				Resolution: "yum update -y kernel",
				Systems: []remediation.System{
					{ID: "sys-a", Hostname: "a.example.com"},
					{ID: "sys-b", Hostname: "b.example.com"},
				},
			}},
		},
		Snapshot: createSnapshot(),
		Username: "jdoe",
	}
}

func TestCreatePlaybookRunDispatchesToConnectedOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var recorded store.RunCreation
	st := &fakeStore{
		recordRunCreationFunc: func(_ context.Context, rec store.RunCreation) error {
			recorded = rec
			return nil
		},
	}

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		PostPlaybookRunRequests(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, reqs []dispatcher.WorkRequest) ([]dispatcher.DispatchResult, error) {
			require.Len(t, reqs, 1)
			req := reqs[0]
			assert.Equal(t, "654321", req.Account)
			assert.Equal(t, "exec-1", req.Recipient)
			assert.Equal(t, dispatcher.DirectiveExecute, req.Directive)

			var payload runPayload
			require.NoError(t, json.Unmarshal([]byte(req.Payload), &payload))
			assert.Equal(t, "rem-1", payload.RemediationID)
			assert.Equal(t, []string{"a.example.com", "b.example.com"}, payload.Hosts)
			assert.NotEmpty(t, payload.Playbook)

			return []dispatcher.DispatchResult{{Code: 200, ID: "disp-1"}}, nil
		})

	svc := newTestService(st, client)
	result, err := svc.CreatePlaybookRun(context.Background(), createRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	require.Len(t, result.Submissions, 1)
	assert.True(t, result.Submissions[0].Accepted)
	assert.Equal(t, "exec-1", result.Submissions[0].ExecutorID)
	assert.Equal(t, 2, result.Submissions[0].SystemCount)

	// Pending state recorded for the accepted executor and its systems.
	assert.Equal(t, result.ID, recorded.Run.ID)
	assert.Equal(t, remediation.RunStatusPending, recorded.Run.Status)
	require.Len(t, recorded.Executors, 1)
	assert.Equal(t, "exec-1", recorded.Executors[0].ExecutorID)
	require.Len(t, recorded.Systems, 2)
	assert.Equal(t, "system log has started.", recorded.Systems[0].Console)
	assert.Equal(t, 0, recorded.Systems[0].Sequence)
}

func TestCreatePlaybookRunNoConnectedExecutors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)

	req := createRequest()
	req.Snapshot[0].Status = remediation.ConnectionDisconnected

	svc := newTestService(&fakeStore{}, client)
	_, err := svc.CreatePlaybookRun(context.Background(), req)

	assert.ErrorIs(t, err, ErrNoExecutors)
}

func TestCreatePlaybookRunExcludeEmptiesTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)

	req := createRequest()
	req.Exclude = []string{"exec-1"}

	svc := newTestService(&fakeStore{}, client)
	_, err := svc.CreatePlaybookRun(context.Background(), req)

	assert.ErrorIs(t, err, ErrNoExecutors)
}

func TestCreatePlaybookRunPartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := createRequest()
	req.Snapshot[1].Status = remediation.ConnectionConnected

	var recorded store.RunCreation
	st := &fakeStore{
		recordRunCreationFunc: func(_ context.Context, rec store.RunCreation) error {
			recorded = rec
			return nil
		},
	}

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		PostPlaybookRunRequests(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, reqs []dispatcher.WorkRequest) ([]dispatcher.DispatchResult, error) {
			if reqs[0].Recipient == "exec-2" {
				return nil, errors.New("connection refused")
			}
			return []dispatcher.DispatchResult{{Code: 200, ID: "disp-1"}}, nil
		}).
		Times(2)

	svc := newTestService(st, client)
	result, err := svc.CreatePlaybookRun(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Submissions, 2)

	byExecutor := map[string]ExecutorSubmission{}
	for _, sub := range result.Submissions {
		byExecutor[sub.ExecutorID] = sub
	}
	assert.True(t, byExecutor["exec-1"].Accepted)
	assert.False(t, byExecutor["exec-2"].Accepted)

	// Only the accepted executor gets pending rows.
	require.Len(t, recorded.Executors, 1)
	assert.Equal(t, "exec-1", recorded.Executors[0].ExecutorID)
}

func TestCreatePlaybookRunAllRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	recordCalled := false
	st := &fakeStore{
		recordRunCreationFunc: func(context.Context, store.RunCreation) error {
			recordCalled = true
			return nil
		},
	}

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		PostPlaybookRunRequests(gomock.Any(), gomock.Any()).
		Return([]dispatcher.DispatchResult{{Code: 403}}, nil)

	svc := newTestService(st, client)
	_, err := svc.CreatePlaybookRun(context.Background(), createRequest())

	require.Error(t, err)
	assert.False(t, recordCalled, "no state may be recorded when every submission is rejected")
}

func TestFilterExcludedDropsSystemsAndExecutors(t *testing.T) {
	snapshot := createSnapshot()

	out := filterExcluded(snapshot, []string{"sys-a"})

	require.Len(t, out, 2)
	require.Len(t, out[0].Systems, 1)
	assert.Equal(t, "sys-b", out[0].Systems[0].ID)

	out = filterExcluded(snapshot, []string{"sys-a", "sys-b"})
	require.Len(t, out, 1)
	assert.Equal(t, "exec-2", out[0].ID)
}

func TestUniqueHosts(t *testing.T) {
	hosts := uniqueHosts([]remediation.System{
		{Hostname: "b.example.com"},
		{Hostname: "a.example.com"},
		{Hostname: "b.example.com"},
	})
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, hosts)
}
