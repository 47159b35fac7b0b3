package models

import "time"

// BadgeCategory groups badges for the UI shelf.
type BadgeCategory string

const (
	BadgeCategoryExploration BadgeCategory = "exploration"
	BadgeCategoryPractice    BadgeCategory = "practice"
	BadgeCategoryStreak      BadgeCategory = "streak"
	BadgeCategoryAchievement BadgeCategory = "achievement"
)

// Badge is an earned achievement. EarnedAt is set once when the badge is
// granted and never changes afterwards.
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Category    BadgeCategory `json:"category"`
	EarnedAt    time.Time     `json:"earnedAt"`
}

// ProgressData is the persisted progress aggregate for one learner.
// Sections/topics/tools are sets: duplicates are suppressed on insert and
// insertion order is not meaningful. Badges keep earn order and unique ids.
type ProgressData struct {
	SectionsVisited   []string  `json:"sectionsVisited"`
	TopicsExplored    []string  `json:"topicsExplored"`
	ToolsUsed         []string  `json:"toolsUsed"`
	PracticeCompleted int       `json:"practiceCompleted"`
	Streak            int       `json:"streak"`
	Badges            []Badge   `json:"badges"`
	LastVisit         time.Time `json:"lastVisit"`
}

// CompletionStats are 0-100 percentages against the fixed catalog sizes.
type CompletionStats struct {
	Sections int `json:"sections"`
	Topics   int `json:"topics"`
	Tools    int `json:"tools"`
	Badges   int `json:"badges"`
	Overall  int `json:"overall"`
}

// ExportSnapshot is the user-facing backup format. SnapshotID identifies a
// particular download; import ignores it.
type ExportSnapshot struct {
	Version    string       `json:"version"`
	SnapshotID string       `json:"snapshotId,omitempty"`
	ExportedAt time.Time    `json:"exportedAt"`
	Data       ProgressData `json:"data"`
}
