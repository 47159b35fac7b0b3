package progress

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"mathfarm/backend/models"
)

// SchemaVersion is the only accepted version for persisted and exported
// payloads. A mismatch means the payload is treated as absent; there is no
// cross-version migration.
const SchemaVersion = "1.0"

const (
	maxIdentifierLen = 50
	maxPractice      = 10000
	maxStreak        = 365
)

// DaysBetween returns the absolute day difference between two timestamps,
// truncated, using fixed 24-hour days. No calendar or timezone awareness.
func DaysBetween(a, b time.Time) int {
	hours := a.Sub(b).Hours()
	if hours < 0 {
		hours = -hours
	}
	return int(hours / 24)
}

// ComputeStreak advances a consecutive-day streak. A same-day revisit keeps
// the current value unchanged, even when it is 0: the streak only becomes
// positive once activity spans a day boundary, so callers seeding a fresh
// record must set the initial value themselves.
func ComputeStreak(lastVisit time.Time, currentStreak int, now time.Time) int {
	switch DaysBetween(now, lastVisit) {
	case 0:
		return currentStreak
	case 1:
		return currentStreak + 1
	default:
		return 1
	}
}

// QualifiesForBadge reports whether progress meets the catalog threshold for
// the badge. Unknown ids never qualify.
func QualifiesForBadge(id string, p models.ProgressData) bool {
	spec, ok := LookupBadge(id)
	if !ok {
		return false
	}
	if spec.AlwaysEarned {
		return true
	}
	return spec.Count(p) >= spec.Requirement
}

func percentage(count, total int) int {
	pct := int(math.Round(float64(count) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// CalculateCompletionStats returns 0-100 percentages per axis against the
// fixed catalog sizes. Overall is computed from the raw unclamped counts over
// the summed denominators, so over-indexing on one axis cannot inflate it
// past what the other axes justify.
func CalculateCompletionStats(p models.ProgressData) models.CompletionStats {
	rawTotal := len(p.SectionsVisited) + len(p.TopicsExplored) + len(p.ToolsUsed) + len(p.Badges)
	return models.CompletionStats{
		Sections: percentage(len(p.SectionsVisited), TotalSections),
		Topics:   percentage(len(p.TopicsExplored), TotalTopics),
		Tools:    percentage(len(p.ToolsUsed), TotalTools),
		Badges:   percentage(len(p.Badges), TotalBadges),
		Overall:  percentage(rawTotal, TotalSections+TotalTopics+TotalTools+TotalBadges),
	}
}

// GenerateProgressSummary produces a deterministic one-paragraph description
// of the record. The streak clause appears only for a positive streak; the
// badge clause names the badge with the latest EarnedAt, and on equal
// timestamps the earliest-earned badge wins.
func GenerateProgressSummary(p models.ProgressData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have explored %d topics, used %d tools, and completed %d practice problems.",
		len(p.TopicsExplored), len(p.ToolsUsed), p.PracticeCompleted)

	if p.Streak > 0 {
		dayWord := "days"
		if p.Streak == 1 {
			dayWord = "day"
		}
		fmt.Fprintf(&b, " You are on a streak of %d %s.", p.Streak, dayWord)
	}

	if len(p.Badges) > 0 {
		latest := p.Badges[0]
		for _, badge := range p.Badges[1:] {
			if badge.EarnedAt.After(latest.EarnedAt) {
				latest = badge
			}
		}
		fmt.Fprintf(&b, " Your most recent badge: %s.", latest.Name)
	}

	return b.String()
}

// ValidateProgressData is the structural guard applied to untrusted records.
// It rejects nil records, missing containers, and badges missing any of
// id/name/category/earnedAt or carrying an id outside the catalog.
func ValidateProgressData(p *models.ProgressData) error {
	if p == nil {
		return fmt.Errorf("progress data is nil")
	}
	if p.SectionsVisited == nil || p.TopicsExplored == nil || p.ToolsUsed == nil {
		return fmt.Errorf("missing identifier sets")
	}
	if p.Badges == nil {
		return fmt.Errorf("missing badges")
	}
	if p.PracticeCompleted < 0 || p.Streak < 0 {
		return fmt.Errorf("negative counters")
	}
	if p.LastVisit.IsZero() {
		return fmt.Errorf("missing last visit timestamp")
	}
	for i, badge := range p.Badges {
		if badge.ID == "" || badge.Name == "" || badge.Category == "" || badge.EarnedAt.IsZero() {
			return fmt.Errorf("badge %d is missing required fields", i)
		}
		if _, ok := LookupBadge(badge.ID); !ok {
			return fmt.Errorf("badge %d has unknown id %q", i, badge.ID)
		}
	}
	return nil
}

func sanitizeIdentifiers(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(id) < maxIdentifierLen {
			out = append(out, id)
		}
	}
	return out
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SanitizeProgressData is the hygiene pass applied before persistence and
// export: oversized identifiers are dropped, counters are clamped, malformed
// badges are dropped. Badges are not deduplicated by id here; only the
// store's merge step enforces uniqueness.
func SanitizeProgressData(p models.ProgressData) models.ProgressData {
	badges := make([]models.Badge, 0, len(p.Badges))
	for _, badge := range p.Badges {
		if badge.ID == "" || badge.Name == "" || badge.Category == "" || badge.EarnedAt.IsZero() {
			continue
		}
		badges = append(badges, badge)
	}

	return models.ProgressData{
		SectionsVisited:   sanitizeIdentifiers(p.SectionsVisited),
		TopicsExplored:    sanitizeIdentifiers(p.TopicsExplored),
		ToolsUsed:         sanitizeIdentifiers(p.ToolsUsed),
		PracticeCompleted: clamp(p.PracticeCompleted, 0, maxPractice),
		Streak:            clamp(p.Streak, 0, maxStreak),
		Badges:            badges,
		LastVisit:         p.LastVisit,
	}
}

// ExportProgressData produces a versioned backup snapshot of the sanitized
// record.
func ExportProgressData(p models.ProgressData) models.ExportSnapshot {
	return models.ExportSnapshot{
		Version:    SchemaVersion,
		SnapshotID: uuid.NewString(),
		ExportedAt: time.Now().UTC(),
		Data:       SanitizeProgressData(p),
	}
}

// ImportProgressData parses an exported snapshot. Any failure in the
// parse/version/validate pipeline yields ErrImportFailed and a nil record;
// there are no partial imports.
func ImportProgressData(raw []byte) (*models.ProgressData, error) {
	var snapshot struct {
		Version string          `json:"version"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	if snapshot.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrImportFailed, snapshot.Version)
	}

	var data models.ProgressData
	if err := json.Unmarshal(snapshot.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	if err := ValidateProgressData(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}

	clean := SanitizeProgressData(data)
	return &clean, nil
}
