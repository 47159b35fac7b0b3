package progress

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathfarm/backend/models"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func validProgress() models.ProgressData {
	return models.ProgressData{
		SectionsVisited:   []string{"learn", "practice"},
		TopicsExplored:    []string{"algebra", "geometry"},
		ToolsUsed:         []string{"calculator"},
		PracticeCompleted: 4,
		Streak:            2,
		Badges: []models.Badge{
			{
				ID:          "first-visit",
				Name:        "Welcome to the Farm",
				Description: "Visited Math Farm for the first time",
				Icon:        "seedling",
				Category:    models.BadgeCategoryAchievement,
				EarnedAt:    testNow.Add(-48 * time.Hour),
			},
		},
		LastVisit: testNow.Add(-24 * time.Hour),
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(testNow, testNow))
	assert.Equal(t, 0, DaysBetween(testNow, testNow.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(testNow, testNow.Add(-24*time.Hour)))
	// Symmetric regardless of argument order
	assert.Equal(t, 3, DaysBetween(testNow.Add(-72*time.Hour), testNow))
	// Truncated, not rounded
	assert.Equal(t, 1, DaysBetween(testNow, testNow.Add(-47*time.Hour)))
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name          string
		lastVisit     time.Time
		currentStreak int
		want          int
	}{
		{"same day keeps streak", testNow, 5, 5},
		{"consecutive day increments", testNow.Add(-24 * time.Hour), 5, 6},
		{"gap resets to one", testNow.Add(-72 * time.Hour), 5, 1},
		{"same day keeps zero at zero", testNow, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStreak(tt.lastVisit, tt.currentStreak, testNow))
		})
	}
}

func TestQualifiesForBadge(t *testing.T) {
	p := validProgress()

	assert.True(t, QualifiesForBadge("first-visit", models.ProgressData{}))
	assert.False(t, QualifiesForBadge("topic-explorer", p))
	p.TopicsExplored = append(p.TopicsExplored, "calculus")
	assert.True(t, QualifiesForBadge("topic-explorer", p))

	assert.False(t, QualifiesForBadge("tool-user", p))
	p.ToolsUsed = append(p.ToolsUsed, "grapher")
	assert.True(t, QualifiesForBadge("tool-user", p))

	assert.True(t, QualifiesForBadge("practice-starter", p))
	assert.False(t, QualifiesForBadge("streak-keeper", p))

	// Boundary at exactly 10
	p.PracticeCompleted = 9
	assert.False(t, QualifiesForBadge("dedicated-learner", p))
	p.PracticeCompleted = 10
	assert.True(t, QualifiesForBadge("dedicated-learner", p))

	assert.False(t, QualifiesForBadge("no-such-badge", p))
}

func TestCalculateCompletionStats(t *testing.T) {
	stats := CalculateCompletionStats(validProgress())
	assert.Equal(t, 40, stats.Sections) // 2/5
	assert.Equal(t, 22, stats.Topics)   // 2/9
	assert.Equal(t, 33, stats.Tools)    // 1/3
	assert.Equal(t, 17, stats.Badges)   // 1/6
	assert.Equal(t, 26, stats.Overall)  // 6/23
}

func TestCalculateCompletionStatsClampsTo100(t *testing.T) {
	p := validProgress()
	for i := 0; i < 20; i++ {
		p.TopicsExplored = append(p.TopicsExplored, strings.Repeat("t", i+1))
	}
	stats := CalculateCompletionStats(p)
	assert.Equal(t, 100, stats.Topics)
	assert.LessOrEqual(t, stats.Overall, 100)
	for _, v := range []int{stats.Sections, stats.Topics, stats.Tools, stats.Badges, stats.Overall} {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
}

func TestGenerateProgressSummary(t *testing.T) {
	p := validProgress()
	summary := GenerateProgressSummary(p)
	assert.Contains(t, summary, "explored 2 topics")
	assert.Contains(t, summary, "used 1 tools")
	assert.Contains(t, summary, "completed 4 practice problems")
	assert.Contains(t, summary, "streak of 2 days")
	assert.Contains(t, summary, "Welcome to the Farm")

	p.Streak = 1
	assert.Contains(t, GenerateProgressSummary(p), "streak of 1 day.")

	p.Streak = 0
	p.Badges = nil
	summary = GenerateProgressSummary(p)
	assert.NotContains(t, summary, "streak")
	assert.NotContains(t, summary, "badge")
}

func TestGenerateProgressSummaryMostRecentBadge(t *testing.T) {
	p := validProgress()
	p.Badges = append(p.Badges, models.Badge{
		ID:       "practice-starter",
		Name:     "Practice Starter",
		Category: models.BadgeCategoryPractice,
		EarnedAt: testNow,
	})
	assert.Contains(t, GenerateProgressSummary(p), "Practice Starter")

	// Equal timestamps keep the earliest-earned badge
	p.Badges[1].EarnedAt = p.Badges[0].EarnedAt
	assert.Contains(t, GenerateProgressSummary(p), "Welcome to the Farm")
}

func TestValidateProgressData(t *testing.T) {
	p := validProgress()
	assert.NoError(t, ValidateProgressData(&p))

	assert.Error(t, ValidateProgressData(nil))

	missing := validProgress()
	missing.TopicsExplored = nil
	assert.Error(t, ValidateProgressData(&missing))

	negative := validProgress()
	negative.PracticeCompleted = -1
	assert.Error(t, ValidateProgressData(&negative))

	badBadge := validProgress()
	badBadge.Badges[0].Name = ""
	assert.Error(t, ValidateProgressData(&badBadge))

	unknownBadge := validProgress()
	unknownBadge.Badges[0].ID = "made-up"
	assert.Error(t, ValidateProgressData(&unknownBadge))
}

func TestSanitizeProgressData(t *testing.T) {
	p := validProgress()
	p.SectionsVisited = []string{"learn", strings.Repeat("x", 100), "practice"}
	p.PracticeCompleted = 99999
	p.Streak = 1000
	p.Badges = append(p.Badges, models.Badge{ID: "broken"}) // missing fields

	clean := SanitizeProgressData(p)
	assert.Equal(t, []string{"learn", "practice"}, clean.SectionsVisited)
	assert.Equal(t, 10000, clean.PracticeCompleted)
	assert.Equal(t, 365, clean.Streak)
	assert.Len(t, clean.Badges, 1)
}

func TestSanitizeKeepsDuplicateBadgeIDs(t *testing.T) {
	p := validProgress()
	p.Badges = append(p.Badges, p.Badges[0])
	clean := SanitizeProgressData(p)
	assert.Len(t, clean.Badges, 2)
}

func TestExportImportRoundTrip(t *testing.T) {
	p := validProgress()

	snapshot := ExportProgressData(p)
	assert.Equal(t, SchemaVersion, snapshot.Version)
	assert.NotEmpty(t, snapshot.SnapshotID)

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	imported, err := ImportProgressData(raw)
	require.NoError(t, err)

	wantJSON, err := json.Marshal(SanitizeProgressData(p))
	require.NoError(t, err)
	gotJSON, err := json.Marshal(imported)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestImportProgressDataFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"version":"1.0","data":`},
		{"wrong version", `{"version":"2.0","data":{}}`},
		{"missing data", `{"version":"1.0"}`},
		{"invalid record", `{"version":"1.0","data":{"sectionsVisited":null}}`},
		{"wrong container type", `{"version":"1.0","data":{"sectionsVisited":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imported, err := ImportProgressData([]byte(tt.raw))
			assert.Nil(t, imported)
			assert.ErrorIs(t, err, ErrImportFailed)
		})
	}
}
