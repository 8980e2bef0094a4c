package repository

import (
	"context"
	"errors"
	"time"

	"github.com/standupdoc/standupdoc/internal/standup"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by DocumentRepository.Insert when another
	// writer already created the document for the same occurrence. The
	// service layer recovers by re-reading; it is never a caller error.
	ErrDuplicate = errors.New("document already exists for this occurrence")
)

// StandupRepository persists standup definitions.
type StandupRepository interface {
	Create(ctx context.Context, s *standup.Standup) (string, error)
	Get(ctx context.Context, id string) (*standup.Standup, error)
	List(ctx context.Context) ([]*standup.Standup, error)
	ListByOwner(ctx context.Context, ownerSub string) ([]*standup.Standup, error)
	Update(ctx context.Context, s *standup.Standup) error
	Delete(ctx context.Context, id string) error
}

// DocumentRepository persists occurrence documents. Implementations must
// guarantee at most one document per (standupId, date) pair.
type DocumentRepository interface {
	GetByOccurrence(ctx context.Context, standupID string, date time.Time) (*standup.Document, error)
	Insert(ctx context.Context, d *standup.Document) (string, error)
	Update(ctx context.Context, d *standup.Document) error
	ListByStandup(ctx context.Context, standupID string) ([]*standup.Document, error)
}

// AchievementRepository persists achievements. Window queries filter on
// eventStart in [start, end); a zero start means an unbounded lower edge.
type AchievementRepository interface {
	Create(ctx context.Context, a *standup.Achievement) (string, error)
	ListInWindow(ctx context.Context, standupID string, start, end time.Time) ([]*standup.Achievement, error)
	// AssignToDocument attaches every achievement of the standup whose
	// eventStart falls in [start, end) to the given document, including
	// ones recorded after the window closed. Returns the number updated.
	AssignToDocument(ctx context.Context, documentID, standupID string, start, end time.Time) (int64, error)
}
