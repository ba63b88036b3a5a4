package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleetfix-test.db")
	db, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLite(db)
}

func seedRemediation(t *testing.T, st *SQLite) *remediation.Remediation {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rem := &remediation.Remediation{
		ID: "rem-1", Name: "patch everything", AccountNumber: "654321",
		CreatedBy: "jdoe", CreatedAt: now, UpdatedAt: now,
		Issues: []remediation.Issue{{
			ID:         "advisor:kernel_cve",
			Resolution: "yum update -y kernel",
			Systems: []remediation.System{
				{ID: "sys-a", Hostname: "a.example.com", ExecutorID: "exec-1",
					ExecutorName: "Satellite 1", ExecutorType: remediation.ExecutorTypeSatellite},
				{ID: "sys-b", Hostname: "b.example.com", ExecutorID: "exec-1",
					ExecutorName: "Satellite 1", ExecutorType: remediation.ExecutorTypeSatellite},
			},
		}},
	}
	require.NoError(t, st.SaveRemediation(context.Background(), rem))
	return rem
}

func seedRun(t *testing.T, st *SQLite, runID string, status remediation.RunStatus, created time.Time) {
	t.Helper()
	execID := runID + "-exec"
	rec := RunCreation{
		Run: remediation.PlaybookRun{
			ID: runID, RemediationID: "rem-1", Status: status,
			CreatedBy: "jdoe", CreatedAt: created, UpdatedAt: created,
		},
		Executors: []remediation.RunExecutor{{
			ID: execID, PlaybookRunID: runID, ExecutorID: "exec-1",
			ExecutorName: "Satellite 1", Status: status, SystemCount: 2, UpdatedAt: created,
		}},
		Systems: []remediation.RunSystem{
			{ID: runID + "-sys-a", RunExecutorID: execID, SystemID: "sys-a",
				SystemName: "a.example.com", Status: status, Sequence: 0,
				Console: "system log has started.", UpdatedAt: created},
			{ID: runID + "-sys-b", RunExecutorID: execID, SystemID: "sys-b",
				SystemName: "b.example.com", Status: status, Sequence: 0,
				Console: "system log has started.", UpdatedAt: created},
		},
	}
	require.NoError(t, st.RecordRunCreation(context.Background(), rec))
}

func TestGetRemediationRoundtrip(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	rem, err := st.Get(context.Background(), "rem-1", "654321", "jdoe")
	require.NoError(t, err)
	require.NotNil(t, rem)
	assert.Equal(t, "patch everything", rem.Name)
	require.Len(t, rem.Issues, 1)
	require.Len(t, rem.Issues[0].Systems, 2)
	assert.Equal(t, "a.example.com", rem.Issues[0].Systems[0].Hostname)
}

func TestGetRemediationScopedToAccount(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	rem, err := st.Get(context.Background(), "rem-1", "999999", "jdoe")
	require.NoError(t, err)
	assert.Nil(t, rem)
}

func TestGetPlaybookRunsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, st, "run-old", remediation.RunStatusSuccess, base)
	seedRun(t, st, "run-new", remediation.RunStatusPending, base.Add(time.Hour))

	runs, err := st.GetPlaybookRuns(context.Background(), "rem-1", "654321", "jdoe")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
	require.Len(t, runs[0].Executors, 1)
	assert.Equal(t, 2, runs[0].Executors[0].SystemCount)
	assert.Equal(t, remediation.SourceStore, runs[0].Source)
}

func TestGetRunDetails(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, st, "run-1", remediation.RunStatusRunning, created)

	run, err := st.GetRunDetails(context.Background(), "rem-1", "run-1", "654321", "jdoe")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, remediation.RunStatusRunning, run.Status)
	assert.True(t, run.CreatedAt.Equal(created))
	require.Len(t, run.Executors, 1)

	missing, err := st.GetRunDetails(context.Background(), "rem-1", "run-x", "654321", "jdoe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetRunningExecutorsExcludesTerminal(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, st, "run-done", remediation.RunStatusSuccess, base)
	seedRun(t, st, "run-live", remediation.RunStatusRunning, base.Add(time.Minute))

	execs, err := st.GetRunningExecutors(context.Background(), "rem-1", "run-done", "654321", "jdoe")
	require.NoError(t, err)
	assert.Empty(t, execs)

	execs, err = st.GetRunningExecutors(context.Background(), "rem-1", "run-live", "654321", "jdoe")
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, "exec-1", execs[0].ExecutorID)
}

func TestGetSystemsFilters(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, st, "run-1", remediation.RunStatusPending, created)

	base := SystemsQuery{RemediationID: "rem-1", RunID: "run-1", Account: "654321"}

	systems, err := st.GetSystems(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, systems, 2)
	assert.Equal(t, "a.example.com", systems[0].SystemName)

	q := base
	q.AnsibleHost = "b.example"
	systems, err = st.GetSystems(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "b.example.com", systems[0].SystemName)

	q = base
	q.ExecutorID = "exec-other"
	systems, err = st.GetSystems(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, systems)
}

func TestGetSystemDetails(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, st, "run-1", remediation.RunStatusPending, created)

	sys, err := st.GetSystemDetails(context.Background(), "rem-1", "run-1", "sys-a", "654321", "jdoe")
	require.NoError(t, err)
	require.NotNil(t, sys)
	assert.Equal(t, "a.example.com", sys.SystemName)
	assert.Equal(t, "system log has started.", sys.Console)
	assert.Equal(t, 0, sys.Sequence)

	missing, err := st.GetSystemDetails(context.Background(), "rem-1", "run-1", "sys-z", "654321", "jdoe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordRunCreationIdempotentRunRow(t *testing.T) {
	st := newTestStore(t)
	seedRemediation(t, st)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedRun(t, st, "run-1", remediation.RunStatusPending, created)

	// Re-recording the same run id must not duplicate the run row.
	rec := RunCreation{Run: remediation.PlaybookRun{
		ID: "run-1", RemediationID: "rem-1", Status: remediation.RunStatusPending,
		CreatedBy: "jdoe", CreatedAt: created, UpdatedAt: created,
	}}
	require.NoError(t, st.RecordRunCreation(context.Background(), rec))

	runs, err := st.GetPlaybookRuns(context.Background(), "rem-1", "654321", "jdoe")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
