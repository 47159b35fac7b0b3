package progress

import (
	"time"

	"mathfarm/backend/models"
)

// Fixed denominators for completion stats. Sections, topics and tools match
// the Math Farm site catalog; badges is the size of the badge catalog below.
const (
	TotalSections = 5
	TotalTopics   = 9
	TotalTools    = 3
)

// BadgeSpec is one entry of the badge catalog. Qualification is
// threshold-driven: the badge is earned once Count(progress) reaches
// Requirement. AlwaysEarned marks the degenerate first-visit rule.
type BadgeSpec struct {
	ID           string
	Name         string
	Description  string
	Icon         string
	Category     models.BadgeCategory
	Requirement  int
	AlwaysEarned bool
	Count        func(models.ProgressData) int
}

// Catalog is the canonical badge list. Keep ids and order stable: clients
// store badge ids, and catalog order is the tie-break for summaries.
var Catalog = []BadgeSpec{
	{
		ID:           "first-visit",
		Name:         "Welcome to the Farm",
		Description:  "Visited Math Farm for the first time",
		Icon:         "seedling",
		Category:     models.BadgeCategoryAchievement,
		AlwaysEarned: true,
	},
	{
		ID:          "topic-explorer",
		Name:        "Topic Explorer",
		Description: "Explored 3 different math topics",
		Icon:        "compass",
		Category:    models.BadgeCategoryExploration,
		Requirement: 3,
		Count:       func(p models.ProgressData) int { return len(p.TopicsExplored) },
	},
	{
		ID:          "tool-user",
		Name:        "Tool User",
		Description: "Used 2 different math tools",
		Icon:        "wrench",
		Category:    models.BadgeCategoryExploration,
		Requirement: 2,
		Count:       func(p models.ProgressData) int { return len(p.ToolsUsed) },
	},
	{
		ID:          "practice-starter",
		Name:        "Practice Starter",
		Description: "Completed your first practice problem",
		Icon:        "pencil",
		Category:    models.BadgeCategoryPractice,
		Requirement: 1,
		Count:       func(p models.ProgressData) int { return p.PracticeCompleted },
	},
	{
		ID:          "streak-keeper",
		Name:        "Streak Keeper",
		Description: "Kept a 3-day learning streak",
		Icon:        "flame",
		Category:    models.BadgeCategoryStreak,
		Requirement: 3,
		Count:       func(p models.ProgressData) int { return p.Streak },
	},
	{
		ID:          "dedicated-learner",
		Name:        "Dedicated Learner",
		Description: "Completed 10 practice problems",
		Icon:        "trophy",
		Category:    models.BadgeCategoryPractice,
		Requirement: 10,
		Count:       func(p models.ProgressData) int { return p.PracticeCompleted },
	},
}

// TotalBadges is the badge-axis denominator for completion stats.
var TotalBadges = len(Catalog)

// LookupBadge returns the catalog entry for id.
func LookupBadge(id string) (BadgeSpec, bool) {
	for _, spec := range Catalog {
		if spec.ID == id {
			return spec, true
		}
	}
	return BadgeSpec{}, false
}

// NewBadge materializes a catalog entry as an earned badge.
func NewBadge(spec BadgeSpec, earnedAt time.Time) models.Badge {
	return models.Badge{
		ID:          spec.ID,
		Name:        spec.Name,
		Description: spec.Description,
		Icon:        spec.Icon,
		Category:    spec.Category,
		EarnedAt:    earnedAt,
	}
}
