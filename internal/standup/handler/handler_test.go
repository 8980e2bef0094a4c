package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/standupdoc/standupdoc/internal/standup"
	"github.com/standupdoc/standupdoc/internal/standup/repository"
	"github.com/standupdoc/standupdoc/internal/standup/service"
)

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, achievements []*standup.Achievement) (string, error) {
	f.calls++
	lines := make([]string, 0, len(achievements))
	for _, a := range achievements {
		lines = append(lines, "- "+a.Description)
	}
	return strings.Join(lines, "\n"), nil
}

type fixture struct {
	router   *gin.Engine
	standups *repository.MemoryStandupRepository
	achs     *repository.MemoryAchievementRepository
	sum      *fakeSummarizer
}

// Wednesday 2024-01-10 17:00 UTC
var testNow = time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	standups := repository.NewMemoryStandupRepository()
	docs := repository.NewMemoryDocumentRepository()
	achs := repository.NewMemoryAchievementRepository()
	sum := &fakeSummarizer{}
	svc := service.New(docs, achs, sum)

	h := New(standups, svc)
	h.SetClock(func() time.Time { return testNow })

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("sub", "owner-1")
		c.Next()
	})
	h.RegisterRoutes(api)
	return &fixture{router: r, standups: standups, achs: achs, sum: sum}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) createStandup(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/standups", gin.H{
		"name":        "daily sync",
		"weekdays":    0b0111110, // Monday through Friday
		"meetingTime": "14:00",
		"timezone":    "UTC",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var st standup.Standup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.NotEmpty(t, st.ID)
	return st.ID
}

func TestCreateStandup_RejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/standups", gin.H{
		"name":        "bad",
		"weekdays":    0,
		"meetingTime": "14:00",
		"timezone":    "UTC",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/standups", gin.H{
		"name":        "bad tz",
		"weekdays":    0b0111110,
		"meetingTime": "14:00",
		"timezone":    "Mars/Olympus",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStandupCRUDAndOwnership(t *testing.T) {
	f := newFixture(t)
	id := f.createStandup(t)

	w := f.do(t, http.MethodGet, "/api/standups/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/standups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []standup.Standup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = f.do(t, http.MethodPatch, "/api/standups/"+id, gin.H{"meetingTime": "09:15"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated standup.Standup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "09:15", updated.MeetingTime)

	w = f.do(t, http.MethodPatch, "/api/standups/"+id, gin.H{"meetingTime": "25:99"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// a different owner sees nothing
	other, err := f.standups.Get(context.Background(), id)
	require.NoError(t, err)
	other.OwnerSub = "owner-2"
	require.NoError(t, f.standups.Update(context.Background(), other))
	w = f.do(t, http.MethodGet, "/api/standups/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodDelete, "/api/standups/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	other.OwnerSub = "owner-1"
	require.NoError(t, f.standups.Update(context.Background(), other))
	w = f.do(t, http.MethodDelete, "/api/standups/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestNextAndOccurrences(t *testing.T) {
	f := newFixture(t)
	id := f.createStandup(t)

	w := f.do(t, http.MethodGet, "/api/standups/"+id+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var next struct {
		Next string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
	// now is Wednesday 17:00, past the 14:00 slot, so Thursday fires next
	require.Equal(t, "2024-01-11T14:00:00Z", next.Next)

	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/occurrences?start=2024-01-08T00:00:00Z&end=2024-01-12T23:59:59Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var occs struct {
		Occurrences []string `json:"occurrences"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &occs))
	require.Len(t, occs.Occurrences, 5)
	require.Equal(t, "2024-01-08T14:00:00Z", occs.Occurrences[0])

	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/occurrences?start=notatime&end=2024-01-12T00:00:00Z", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	id := f.createStandup(t)

	// two achievements inside the current period (Wed 14:00 -> Thu 14:00)
	w := f.do(t, http.MethodPost, "/api/standups/"+id+"/achievements", gin.H{
		"description": "migrated the billing cron",
		"eventStart":  "2024-01-10T15:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/api/standups/"+id+"/achievements", gin.H{
		"description": "fixed the flaky importer test",
		"eventStart":  "2024-01-10T16:30:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc standup.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, time.Date(2024, 1, 11, 14, 0, 0, 0, time.UTC), doc.Date)
	require.Contains(t, doc.AchievementsSummary, "billing cron")
	require.Contains(t, doc.AchievementsSummary, "importer test")
	require.Equal(t, standup.SourceGenerated, doc.Source)
	require.Equal(t, 1, f.sum.calls)

	// second read is idempotent, no extra model call
	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, f.sum.calls)

	// manual WIP sticks through a plain regeneration
	w = f.do(t, http.MethodPut, "/api/standups/"+id+"/document/wip", gin.H{"wip": "pairing on the deploy pipeline"})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/standups/"+id+"/document/regenerate", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, "pairing on the deploy pipeline", doc.WIP)
	require.Equal(t, standup.SourceManual, doc.Source)

	// force overwrites the manual text and flips the source back
	w = f.do(t, http.MethodPost, "/api/standups/"+id+"/document/regenerate", gin.H{"force": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, standup.SourceGenerated, doc.Source)
	require.Equal(t, doc.AchievementsSummary, doc.WIP)

	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var docs []standup.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
}

func TestRegenerateEmptyPeriodConflicts(t *testing.T) {
	f := newFixture(t)
	id := f.createStandup(t)

	// create the placeholder first
	w := f.do(t, http.MethodGet, "/api/standups/"+id+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/standups/"+id+"/document/regenerate", gin.H{})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAchievementWindows(t *testing.T) {
	f := newFixture(t)
	id := f.createStandup(t)

	add := func(desc, at string) {
		w := f.do(t, http.MethodPost, "/api/standups/"+id+"/achievements", gin.H{
			"description": desc,
			"eventStart":  at,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	add("in current period", "2024-01-10T15:00:00Z")
	add("earlier this week", "2024-01-08T09:00:00Z")
	add("too old for the week view", "2024-01-01T09:00:00Z")

	var resp struct {
		Achievements []standup.Achievement `json:"achievements"`
	}

	w := f.do(t, http.MethodGet, "/api/standups/"+id+"/achievements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Achievements, 1)
	require.Equal(t, "in current period", resp.Achievements[0].Description)

	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/achievements?window=week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Achievements, 2)

	w = f.do(t, http.MethodGet, "/api/standups/"+id+"/achievements?window=month", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/standups/"+id+"/achievements", gin.H{"description": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarFeed(t *testing.T) {
	f := newFixture(t)
	id := f.createStandup(t)

	w := f.do(t, http.MethodGet, "/api/standups/"+id+"/calendar.ics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	body := w.Body.String()
	require.Contains(t, body, "BEGIN:VCALENDAR")
	require.Contains(t, body, "RRULE")
	require.Contains(t, body, "daily sync")
}
