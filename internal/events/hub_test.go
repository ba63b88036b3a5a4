package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub(8)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(TypeRunCreated, map[string]string{"playbook_run_id": "run-1"})

	ev := <-ch
	assert.Equal(t, TypeRunCreated, ev.Type)
	assert.Contains(t, string(ev.Data), "run-1")
	assert.Positive(t, ev.ID)
}

func TestHubSnapshotSince(t *testing.T) {
	h := NewHub(8)

	h.Publish(TypeRunCreated, nil)
	h.Publish(TypeRunCanceled, nil)
	h.Publish(TypeRunCreated, nil)

	all := h.SnapshotSince(0)
	require.Len(t, all, 3)

	later := h.SnapshotSince(all[0].ID)
	require.Len(t, later, 2)
	assert.Equal(t, TypeRunCanceled, later[0].Type)
}

func TestHubRingOverwritesOldest(t *testing.T) {
	h := NewHub(2)

	h.Publish("a", nil)
	h.Publish("b", nil)
	h.Publish("c", nil)

	events := h.SnapshotSince(0)
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].Type)
	assert.Equal(t, "c", events[1].Type)
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(4)
	_, cancel := h.Subscribe()
	defer cancel()

	// Fill the subscriber channel past capacity; Publish must not block.
	for i := 0; i < 200; i++ {
		h.Publish(TypeRunCreated, nil)
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic.
	h.Publish(TypeRunCreated, nil)
}
