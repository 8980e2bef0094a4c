package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/standupdoc/standupdoc/internal/standup"
)

// MemoryStandupRepository is an in-memory StandupRepository used in unit
// tests and store-less dev runs.
type MemoryStandupRepository struct {
	mu    sync.RWMutex
	store map[string]*standup.Standup
}

func NewMemoryStandupRepository() *MemoryStandupRepository {
	return &MemoryStandupRepository{store: make(map[string]*standup.Standup)}
}

func (r *MemoryStandupRepository) Create(ctx context.Context, s *standup.Standup) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	r.store[s.ID] = &cp
	return s.ID, nil
}

func (r *MemoryStandupRepository) Get(ctx context.Context, id string) (*standup.Standup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.store[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryStandupRepository) List(ctx context.Context) ([]*standup.Standup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*standup.Standup, 0, len(r.store))
	for _, s := range r.store {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryStandupRepository) ListByOwner(ctx context.Context, ownerSub string) ([]*standup.Standup, error) {
	all, _ := r.List(ctx)
	out := []*standup.Standup{}
	for _, s := range all {
		if s.OwnerSub == ownerSub {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryStandupRepository) Update(ctx context.Context, s *standup.Standup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.store[s.ID]
	if !ok {
		return ErrNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	r.store[s.ID] = &cp
	return nil
}

func (r *MemoryStandupRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

// MemoryDocumentRepository mirrors the Mongo repository's behavior,
// including duplicate detection on (standupId, date).
type MemoryDocumentRepository struct {
	mu    sync.RWMutex
	byID  map[string]*standup.Document
	byKey map[string]string // standupId + RFC3339 date -> document id
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		byID:  make(map[string]*standup.Document),
		byKey: make(map[string]string),
	}
}

func occurrenceKey(standupID string, date time.Time) string {
	return standupID + "/" + date.UTC().Format(time.RFC3339Nano)
}

func (r *MemoryDocumentRepository) GetByOccurrence(ctx context.Context, standupID string, date time.Time) (*standup.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[occurrenceKey(standupID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryDocumentRepository) Insert(ctx context.Context, d *standup.Document) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := occurrenceKey(d.StandupID, d.Date)
	if _, exists := r.byKey[key]; exists {
		return "", ErrDuplicate
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.Date = d.Date.UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	r.byID[d.ID] = &cp
	r.byKey[key] = d.ID
	return d.ID, nil
}

func (r *MemoryDocumentRepository) Update(ctx context.Context, d *standup.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[d.ID]
	if !ok {
		return ErrNotFound
	}
	cur.WIP = d.WIP
	cur.AchievementsSummary = d.AchievementsSummary
	cur.Source = d.Source
	cur.UpdatedAt = time.Now().UTC()
	*d = *cur
	return nil
}

func (r *MemoryDocumentRepository) ListByStandup(ctx context.Context, standupID string) ([]*standup.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*standup.Document{}
	for _, d := range r.byID {
		if d.StandupID == standupID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// MemoryAchievementRepository is the in-memory AchievementRepository.
type MemoryAchievementRepository struct {
	mu    sync.RWMutex
	store map[string]*standup.Achievement
}

func NewMemoryAchievementRepository() *MemoryAchievementRepository {
	return &MemoryAchievementRepository{store: make(map[string]*standup.Achievement)}
}

func (r *MemoryAchievementRepository) Create(ctx context.Context, a *standup.Achievement) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	cp := *a
	r.store[a.ID] = &cp
	return a.ID, nil
}

func inWindow(a *standup.Achievement, standupID string, start, end time.Time) bool {
	if a.StandupID != standupID {
		return false
	}
	if !start.IsZero() && a.EventStart.Before(start) {
		return false
	}
	return a.EventStart.Before(end)
}

func (r *MemoryAchievementRepository) ListInWindow(ctx context.Context, standupID string, start, end time.Time) ([]*standup.Achievement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*standup.Achievement{}
	for _, a := range r.store {
		if inWindow(a, standupID, start, end) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventStart.Before(out[j].EventStart) })
	return out, nil
}

func (r *MemoryAchievementRepository) AssignToDocument(ctx context.Context, documentID, standupID string, start, end time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.store {
		if inWindow(a, standupID, start, end) {
			a.DocumentID = documentID
			n++
		}
	}
	return n, nil
}
