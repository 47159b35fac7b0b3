package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mathfarm/backend/models"
	"mathfarm/backend/storage"
)

// EventKind names a tracked user action.
type EventKind string

const (
	EventVisitSection     EventKind = "visitSection"
	EventExploreTopic     EventKind = "exploreTopic"
	EventUseTool          EventKind = "useTool"
	EventCompletePractice EventKind = "completePractice"
)

// envelope is the persisted slot layout. Timestamp records the last persist;
// exports use ExportedAt instead.
type envelope struct {
	Version   string              `json:"version"`
	Data      models.ProgressData `json:"data"`
	Timestamp time.Time           `json:"timestamp"`
}

// Store owns the progress record behind one storage key. All mutations go
// through RecordEvent so every persisted record has seen the streak and
// badge rules. Storage failures never escape as panics: they come back as
// recoverable errors while the in-memory record stays authoritative.
type Store struct {
	backend storage.Backend
	key     string
	logger  *log.Logger

	current models.ProgressData
	loaded  bool
}

func NewStore(backend storage.Backend, key string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{backend: backend, key: key, logger: logger}
}

func defaultRecord(now time.Time) models.ProgressData {
	return models.ProgressData{
		SectionsVisited: []string{},
		TopicsExplored:  []string{},
		ToolsUsed:       []string{},
		Badges:          []models.Badge{},
		LastVisit:       now,
	}
}

func cloneRecord(p models.ProgressData) models.ProgressData {
	out := p
	out.SectionsVisited = append([]string{}, p.SectionsVisited...)
	out.TopicsExplored = append([]string{}, p.TopicsExplored...)
	out.ToolsUsed = append([]string{}, p.ToolsUsed...)
	out.Badges = append([]models.Badge{}, p.Badges...)
	return out
}

// Load reads the persisted record. A missing slot, or one with a different
// schema version, yields a fresh default record with the first-visit badge
// granted and persisted. A corrupted slot also falls back to defaults but
// additionally reports a recoverable ErrStorageRead. The returned record is
// always usable.
func (s *Store) Load() (models.ProgressData, error) {
	now := time.Now().UTC()

	raw, err := s.backend.Get(s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.initialize(now), nil
		}
		s.current = s.firstVisitRecord(now)
		s.loaded = true
		return cloneRecord(s.current), fmt.Errorf("%w: %v", ErrStorageRead, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.current = s.firstVisitRecord(now)
		s.loaded = true
		return cloneRecord(s.current), fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if env.Version != SchemaVersion {
		s.logger.Printf("progress: discarding persisted data with version %q (want %s)", env.Version, SchemaVersion)
		return s.initialize(now), nil
	}

	s.current = env.Data
	s.loaded = true
	return cloneRecord(s.current), nil
}

func (s *Store) firstVisitRecord(now time.Time) models.ProgressData {
	record := defaultRecord(now)
	if spec, ok := LookupBadge("first-visit"); ok {
		record.Badges = append(record.Badges, NewBadge(spec, now))
	}
	return record
}

func (s *Store) initialize(now time.Time) models.ProgressData {
	s.current = s.firstVisitRecord(now)
	s.loaded = true
	if err := s.persist(now); err != nil {
		s.logger.Printf("progress: initial persist failed: %v", err)
	}
	return cloneRecord(s.current)
}

// RecordEvent applies one tracked action: an idempotent set insertion for
// visit/explore/use events or a counter increment for completed practice.
// The streak is recomputed from the prior visit before LastVisit is stamped,
// then newly qualified badges are appended in catalog order with unique ids.
// The updated record and any newly earned badges are returned even when the
// persist call fails; in that case err wraps ErrStorageWrite and the next
// mutation retries.
func (s *Store) RecordEvent(kind EventKind, id string) (models.ProgressData, []models.Badge, error) {
	if !s.loaded {
		s.Load()
	}

	now := time.Now().UTC()
	working := cloneRecord(s.current)

	switch kind {
	case EventVisitSection:
		working.SectionsVisited = addUnique(working.SectionsVisited, id)
	case EventExploreTopic:
		working.TopicsExplored = addUnique(working.TopicsExplored, id)
	case EventUseTool:
		working.ToolsUsed = addUnique(working.ToolsUsed, id)
	case EventCompletePractice:
		working.PracticeCompleted++
	default:
		return cloneRecord(s.current), nil, fmt.Errorf("unknown event kind %q", kind)
	}

	working.Streak = ComputeStreak(working.LastVisit, working.Streak, now)
	working.LastVisit = now

	newlyEarned := s.mergeBadges(&working, now)

	s.current = working
	if err := s.persist(now); err != nil {
		return cloneRecord(working), newlyEarned, err
	}
	return cloneRecord(working), newlyEarned, nil
}

func addUnique(set []string, id string) []string {
	for _, existing := range set {
		if existing == id {
			return set
		}
	}
	return append(set, id)
}

// mergeBadges appends every catalog badge the record now qualifies for and
// does not already hold, preserving existing order.
func (s *Store) mergeBadges(p *models.ProgressData, now time.Time) []models.Badge {
	held := make(map[string]bool, len(p.Badges))
	for _, badge := range p.Badges {
		held[badge.ID] = true
	}

	var newlyEarned []models.Badge
	for _, spec := range Catalog {
		if held[spec.ID] || !QualifiesForBadge(spec.ID, *p) {
			continue
		}
		badge := NewBadge(spec, now)
		p.Badges = append(p.Badges, badge)
		newlyEarned = append(newlyEarned, badge)
	}
	return newlyEarned
}

// Restore replaces the record wholesale, used after a successful import.
func (s *Store) Restore(data models.ProgressData) error {
	s.current = cloneRecord(data)
	s.loaded = true
	return s.persist(time.Now().UTC())
}

// Clear removes the persisted slot and resets to defaults. The first-visit
// badge is not re-granted here; that only happens on a true first load.
func (s *Store) Clear() error {
	now := time.Now().UTC()
	s.current = defaultRecord(now)
	s.loaded = true
	if err := s.backend.Remove(s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// Snapshot returns a copy of the in-memory record without side effects.
func (s *Store) Snapshot() models.ProgressData {
	return cloneRecord(s.current)
}

func (s *Store) persist(now time.Time) error {
	env := envelope{
		Version:   SchemaVersion,
		Data:      SanitizeProgressData(s.current),
		Timestamp: now,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := s.backend.Set(s.key, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}
