package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/standupdoc/standupdoc/internal/schedule"
	"github.com/standupdoc/standupdoc/internal/standup"
	"github.com/standupdoc/standupdoc/internal/standup/repository"
	"github.com/standupdoc/standupdoc/internal/summarize"
	"github.com/standupdoc/standupdoc/pkg/logger"
	"github.com/standupdoc/standupdoc/pkg/metrics"
)

var (
	// ErrNoAchievements signals a regeneration request whose collection
	// window is empty. The caller decides whether to abort or keep a
	// placeholder; the service never fabricates a summary from nothing.
	ErrNoAchievements = errors.New("no achievements in the collection period")
	// ErrBusy means another writer holds the generation lock for the
	// same occurrence right now.
	ErrBusy = errors.New("document generation already in progress")
)

// Locker serializes generation per occurrence. Optional; the store's
// uniqueness constraint already makes creation race-free on its own.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Archiver stores a snapshot of a document before a forced regeneration
// overwrites it. Optional and best-effort.
type Archiver interface {
	Archive(ctx context.Context, d *standup.Document) error
}

// GenerateOptions control GetOrCreateDocument. Regenerate recomputes the
// summary for an occurrence that may already have a document. Force
// additionally lets generated content replace a manually written WIP and
// flips the document's source back to generated.
type GenerateOptions struct {
	Regenerate bool
	Force      bool
}

const lockTTL = 30 * time.Second

// Service owns the occurrence-document lifecycle: the only stateful part
// of the scheduling core. Everything it depends on besides the document
// and achievement stores is an external collaborator behind a narrow
// interface.
type Service struct {
	docs         repository.DocumentRepository
	achievements repository.AchievementRepository
	summarizer   summarize.Summarizer

	locker   Locker   // optional
	archiver Archiver // optional
}

func New(docs repository.DocumentRepository, achievements repository.AchievementRepository, summarizer summarize.Summarizer) *Service {
	return &Service{docs: docs, achievements: achievements, summarizer: summarizer}
}

func (s *Service) SetLocker(l Locker)     { s.locker = l }
func (s *Service) SetArchiver(a Archiver) { s.archiver = a }

// GetOrCreateDocument returns the one document for the given occurrence
// of st, creating or regenerating it as requested. now is the caller's
// reference instant; it decides whether the occurrence is the upcoming
// one (collection window anchored at now) or a historical one (window
// anchored at the occurrence itself).
//
// The upsert is the last step: a summarizer failure leaves any existing
// document in its last known-good state, and an insert that loses a
// creation race falls back to re-reading the winner's row.
func (s *Service) GetOrCreateDocument(ctx context.Context, st *standup.Standup, occurrence, now time.Time, opts GenerateOptions) (*standup.Document, error) {
	sched, err := st.Schedule()
	if err != nil {
		return nil, err
	}

	existing, err := s.docs.GetByOccurrence(ctx, st.ID, occurrence)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && !opts.Regenerate {
		return existing, nil
	}

	if s.locker != nil {
		key := fmt.Sprintf("%s/%s", st.ID, occurrence.UTC().Format(time.RFC3339))
		release, ok, err := s.locker.Acquire(ctx, key, lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			// another writer is generating; surface what exists
			if doc, err := s.docs.GetByOccurrence(ctx, st.ID, occurrence); err == nil {
				return doc, nil
			}
			return nil, ErrBusy
		}
		defer release()
	}

	var window schedule.Window
	if occurrence.After(now) {
		window = sched.CurrentWindow(now)
	} else {
		window = sched.WindowBefore(occurrence)
	}

	found, err := s.achievements.ListInWindow(ctx, st.ID, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	var summary string
	if len(found) == 0 {
		if opts.Regenerate {
			return existing, ErrNoAchievements
		}
		// first document of an empty period: a placeholder, no model call
	} else {
		summary, err = s.summarizer.Summarize(ctx, found)
		if err != nil {
			metrics.SummarizeFailures.Inc()
			return nil, err
		}
	}

	if existing == nil {
		doc := &standup.Document{
			StandupID:           st.ID,
			Date:                occurrence.UTC(),
			AchievementsSummary: summary,
			Source:              standup.SourceGenerated,
		}
		if opts.Force {
			doc.WIP = summary
		}
		if _, err := s.docs.Insert(ctx, doc); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				metrics.DuplicateRaces.Inc()
				return s.docs.GetByOccurrence(ctx, st.ID, occurrence)
			}
			return nil, err
		}
		metrics.DocumentsGenerated.WithLabelValues("create").Inc()
		s.assign(ctx, doc.ID, st.ID, window)
		return doc, nil
	}

	updated := *existing
	updated.AchievementsSummary = summary
	if opts.Force {
		if s.archiver != nil {
			if err := s.archiver.Archive(ctx, existing); err != nil {
				logger.Warnf("archive snapshot for %s/%s failed: %v", st.ID, occurrence.Format(time.RFC3339), err)
			}
		}
		updated.WIP = summary
		updated.Source = standup.SourceGenerated
	}
	if err := s.docs.Update(ctx, &updated); err != nil {
		return nil, err
	}
	metrics.DocumentsGenerated.WithLabelValues("regenerate").Inc()
	s.assign(ctx, updated.ID, st.ID, window)
	return &updated, nil
}

// assign re-attaches every achievement of the window to the document so
// late-recorded entries end up on the document of the period they
// happened in.
func (s *Service) assign(ctx context.Context, documentID, standupID string, w schedule.Window) {
	if _, err := s.achievements.AssignToDocument(ctx, documentID, standupID, w.Start, w.End); err != nil {
		logger.Warnf("assign achievements to document %s: %v", documentID, err)
	}
}

// SetWIP stores a user-authored WIP text for the occurrence's document,
// creating the document if generation has not run yet. The source flips
// to manual, which makes the WIP sticky against non-forced regeneration.
func (s *Service) SetWIP(ctx context.Context, standupID string, occurrence time.Time, wip string) (*standup.Document, error) {
	doc, err := s.docs.GetByOccurrence(ctx, standupID, occurrence)
	if errors.Is(err, repository.ErrNotFound) {
		doc = &standup.Document{
			StandupID: standupID,
			Date:      occurrence.UTC(),
			WIP:       wip,
			Source:    standup.SourceManual,
		}
		if _, err := s.docs.Insert(ctx, doc); err != nil {
			if !errors.Is(err, repository.ErrDuplicate) {
				return nil, err
			}
			// lost the race against a generator: update the winner
			doc, err = s.docs.GetByOccurrence(ctx, standupID, occurrence)
			if err != nil {
				return nil, err
			}
		} else {
			return doc, nil
		}
	} else if err != nil {
		return nil, err
	}

	doc.WIP = wip
	doc.Source = standup.SourceManual
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// RecordAchievement validates and stores a new achievement. A zero
// eventStart defaults to now: the moment of recording.
func (s *Service) RecordAchievement(ctx context.Context, a *standup.Achievement, now time.Time) (string, error) {
	if a.Description == "" {
		return "", errors.New("achievement description is required")
	}
	if a.EventStart.IsZero() {
		a.EventStart = now.UTC()
	}
	return s.achievements.Create(ctx, a)
}

// AchievementsInWindow lists achievements for either the current
// collection period ("current") or the trailing seven days ("week").
func (s *Service) AchievementsInWindow(ctx context.Context, st *standup.Standup, now time.Time, mode string) ([]*standup.Achievement, schedule.Window, error) {
	sched, err := st.Schedule()
	if err != nil {
		return nil, schedule.Window{}, err
	}
	var w schedule.Window
	switch mode {
	case "week":
		w = schedule.LastSevenDays(now)
	default:
		w = sched.CurrentWindow(now)
	}
	found, err := s.achievements.ListInWindow(ctx, st.ID, w.Start, w.End)
	if err != nil {
		return nil, w, err
	}
	return found, w, nil
}

// Documents lists the standup's documents, newest first.
func (s *Service) Documents(ctx context.Context, standupID string) ([]*standup.Document, error) {
	return s.docs.ListByStandup(ctx, standupID)
}
