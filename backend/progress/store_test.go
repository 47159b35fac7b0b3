package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathfarm/backend/models"
	"mathfarm/backend/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory()
	return NewStore(backend, "mathfarm-progress:test", nil), backend
}

func TestLoadFreshStore(t *testing.T) {
	store, backend := newTestStore(t)

	data, err := store.Load()
	require.NoError(t, err)

	assert.Empty(t, data.SectionsVisited)
	assert.Empty(t, data.TopicsExplored)
	assert.Empty(t, data.ToolsUsed)
	assert.Zero(t, data.PracticeCompleted)
	assert.Zero(t, data.Streak)
	require.Len(t, data.Badges, 1)
	assert.Equal(t, "first-visit", data.Badges[0].ID)

	// The fresh record is persisted immediately
	raw, err := backend.Get("mathfarm-progress:test")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":"1.0"`)
}

func TestLoadVersionMismatchReinitializes(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, backend.Set("mathfarm-progress:test",
		[]byte(`{"version":"0.9","data":{"practiceCompleted":7},"timestamp":"2026-01-01T00:00:00Z"}`)))

	data, err := store.Load()
	require.NoError(t, err)
	assert.Zero(t, data.PracticeCompleted)
	require.Len(t, data.Badges, 1)
	assert.Equal(t, "first-visit", data.Badges[0].ID)

	raw, err := backend.Get("mathfarm-progress:test")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":"1.0"`)
}

func TestLoadCorruptedPayload(t *testing.T) {
	store, backend := newTestStore(t)
	require.NoError(t, backend.Set("mathfarm-progress:test", []byte(`{{ not json`)))

	data, err := store.Load()
	assert.ErrorIs(t, err, ErrStorageRead)
	// The returned record is still usable
	require.Len(t, data.Badges, 1)
	assert.Equal(t, "first-visit", data.Badges[0].ID)
}

func TestRecordEventSetIdempotence(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()

	for i := 0; i < 5; i++ {
		_, _, err := store.RecordEvent(EventVisitSection, "practice")
		require.NoError(t, err)
	}
	_, _, err := store.RecordEvent(EventVisitSection, "learn")
	require.NoError(t, err)

	data := store.Snapshot()
	assert.ElementsMatch(t, []string{"practice", "learn"}, data.SectionsVisited)
}

func TestRecordEventEarnsTopicExplorer(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()

	for _, topic := range []string{"algebra", "geometry"} {
		_, earned, err := store.RecordEvent(EventExploreTopic, topic)
		require.NoError(t, err)
		assert.Empty(t, earned)
	}

	updated, earned, err := store.RecordEvent(EventExploreTopic, "calculus")
	require.NoError(t, err)
	assert.Len(t, updated.TopicsExplored, 3)
	require.Len(t, earned, 1)
	assert.Equal(t, "topic-explorer", earned[0].ID)
	assert.False(t, earned[0].EarnedAt.IsZero())
}

func TestRecordEventPracticeBadges(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()

	_, earned, err := store.RecordEvent(EventCompletePractice, "")
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, "practice-starter", earned[0].ID)

	var last []models.Badge
	for i := 0; i < 9; i++ {
		_, last, err = store.RecordEvent(EventCompletePractice, "")
		require.NoError(t, err)
	}
	require.Len(t, last, 1)
	assert.Equal(t, "dedicated-learner", last[0].ID)
	assert.Equal(t, 10, store.Snapshot().PracticeCompleted)
}

func TestRecordEventNeverDuplicatesBadges(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()

	for i := 0; i < 12; i++ {
		_, _, err := store.RecordEvent(EventCompletePractice, "")
		require.NoError(t, err)
	}

	seen := map[string]int{}
	for _, badge := range store.Snapshot().Badges {
		seen[badge.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "badge %s duplicated", id)
	}
}

func TestRecordEventUnknownKind(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()

	_, _, err := store.RecordEvent("teleport", "moon")
	assert.Error(t, err)
}

func TestRecordEventSurvivesWriteFailure(t *testing.T) {
	store, backend := newTestStore(t)
	store.Load()

	backend.FailWrites(true)
	updated, _, err := store.RecordEvent(EventUseTool, "calculator")
	assert.ErrorIs(t, err, ErrStorageWrite)
	// In-memory state stays authoritative
	assert.Equal(t, []string{"calculator"}, updated.ToolsUsed)
	assert.Equal(t, []string{"calculator"}, store.Snapshot().ToolsUsed)

	// Next mutation retries the write and carries the full state
	backend.FailWrites(false)
	_, _, err = store.RecordEvent(EventUseTool, "grapher")
	require.NoError(t, err)

	raw, err := backend.Get("mathfarm-progress:test")
	require.NoError(t, err)
	var env struct {
		Data models.ProgressData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.ElementsMatch(t, []string{"calculator", "grapher"}, env.Data.ToolsUsed)
}

func TestClear(t *testing.T) {
	store, backend := newTestStore(t)
	store.Load()
	_, _, err := store.RecordEvent(EventCompletePractice, "")
	require.NoError(t, err)

	require.NoError(t, store.Clear())

	data := store.Snapshot()
	assert.Zero(t, data.PracticeCompleted)
	// first-visit is not re-granted on clear
	assert.Empty(t, data.Badges)

	_, err = backend.Get("mathfarm-progress:test")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRestorePersistsImportedRecord(t *testing.T) {
	store, backend := newTestStore(t)
	store.Load()

	imported := models.ProgressData{
		SectionsVisited:   []string{"learn"},
		TopicsExplored:    []string{"algebra"},
		ToolsUsed:         []string{},
		PracticeCompleted: 2,
		Streak:            1,
		Badges:            []models.Badge{},
		LastVisit:         testNow,
	}
	require.NoError(t, store.Restore(imported))

	assert.Equal(t, 2, store.Snapshot().PracticeCompleted)
	raw, err := backend.Get("mathfarm-progress:test")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"algebra"`)
}

func TestSnapshotIsACopy(t *testing.T) {
	store, _ := newTestStore(t)
	store.Load()
	_, _, err := store.RecordEvent(EventVisitSection, "learn")
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.SectionsVisited[0] = "mutated"
	assert.Equal(t, "learn", store.Snapshot().SectionsVisited[0])
}
