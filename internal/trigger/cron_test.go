package trigger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standupdoc/standupdoc/internal/schedule"
	"github.com/standupdoc/standupdoc/internal/standup"
	"github.com/standupdoc/standupdoc/internal/standup/repository"
	"github.com/standupdoc/standupdoc/internal/standup/service"
)

type stubSummarizer struct{ calls int }

func (s *stubSummarizer) Summarize(ctx context.Context, a []*standup.Achievement) (string, error) {
	s.calls++
	return "summary", nil
}

func TestSweepGeneratesFiredOccurrences(t *testing.T) {
	ctx := context.Background()
	standups := repository.NewMemoryStandupRepository()
	docs := repository.NewMemoryDocumentRepository()
	ach := repository.NewMemoryAchievementRepository()
	svc := service.New(docs, ach, &stubSummarizer{})

	st := &standup.Standup{
		Name:        "daily",
		Weekdays:    int(schedule.Weekdays),
		MeetingTime: "09:00",
		Timezone:    "UTC",
	}
	_, err := standups.Create(ctx, st)
	require.NoError(t, err)

	tr := New(standups, svc, time.Minute)

	// a sweep spanning Monday and Tuesday meetings
	since := time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	tr.Sweep(ctx, since, now)

	list, err := docs.ListByStandup(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// a second sweep over the same span is a no-op
	tr.Sweep(ctx, since, now)
	list, err = docs.ListByStandup(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestSweepSkipsInvalidSchedules(t *testing.T) {
	ctx := context.Background()
	standups := repository.NewMemoryStandupRepository()
	docs := repository.NewMemoryDocumentRepository()
	svc := service.New(docs, repository.NewMemoryAchievementRepository(), &stubSummarizer{})

	_, err := standups.Create(ctx, &standup.Standup{Name: "broken", Weekdays: 0, MeetingTime: "09:00", Timezone: "UTC"})
	require.NoError(t, err)

	tr := New(standups, svc, time.Minute)
	tr.Sweep(ctx, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))

	// nothing generated, nothing panicked
	for _, s := range mustList(t, standups, ctx) {
		list, err := docs.ListByStandup(ctx, s.ID)
		require.NoError(t, err)
		require.Empty(t, list)
	}
}

func mustList(t *testing.T, r repository.StandupRepository, ctx context.Context) []*standup.Standup {
	t.Helper()
	out, err := r.List(ctx)
	require.NoError(t, err)
	return out
}
