package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/standupdoc/standupdoc/internal/export"
	"github.com/standupdoc/standupdoc/internal/schedule"
	"github.com/standupdoc/standupdoc/internal/standup"
	"github.com/standupdoc/standupdoc/internal/standup/repository"
	"github.com/standupdoc/standupdoc/internal/standup/service"
)

// Handler exposes the standup API. The clock is injectable so tests can
// pin "now" instead of sleeping around occurrence boundaries.
type Handler struct {
	standups repository.StandupRepository
	svc      *service.Service
	now      func() time.Time
}

func New(standups repository.StandupRepository, svc *service.Service) *Handler {
	return &Handler{standups: standups, svc: svc, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (h *Handler) SetClock(now func() time.Time) { h.now = now }

// RegisterRoutes mounts the standup API under the given group, which is
// expected to already carry the auth middleware.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/standups", h.create)
	g.GET("/standups", h.list)
	g.GET("/standups/:id", h.get)
	g.PATCH("/standups/:id", h.update)
	g.DELETE("/standups/:id", h.delete)

	g.GET("/standups/:id/next", h.next)
	g.GET("/standups/:id/occurrences", h.occurrences)

	g.GET("/standups/:id/document", h.document)
	g.POST("/standups/:id/document/regenerate", h.regenerate)
	g.PUT("/standups/:id/document/wip", h.setWIP)
	g.GET("/standups/:id/documents", h.documents)

	g.POST("/standups/:id/achievements", h.recordAchievement)
	g.GET("/standups/:id/achievements", h.achievements)

	g.GET("/standups/:id/calendar.ics", h.calendar)
}

type standupRequest struct {
	Name        string `json:"name"`
	Weekdays    int    `json:"weekdays"`
	MeetingTime string `json:"meetingTime"`
	Timezone    string `json:"timezone"`
	StartDate   string `json:"startDate,omitempty"` // RFC 3339
}

func (h *Handler) create(c *gin.Context) {
	var req standupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := &standup.Standup{
		OwnerSub:    c.GetString("sub"),
		Name:        req.Name,
		Weekdays:    req.Weekdays,
		MeetingTime: req.MeetingTime,
		Timezone:    req.Timezone,
	}
	if req.StartDate != "" {
		t, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be RFC 3339"})
			return
		}
		st.StartDate = t
	}
	// reject schedules the engine cannot run before they are stored
	if _, err := st.Schedule(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.standups.Create(c.Request.Context(), st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create standup"})
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.standups.ListByOwner(c.Request.Context(), c.GetString("sub"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list standups"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// owned loads the standup and enforces ownership. Foreign standups read
// as absent, not forbidden, so ids do not leak.
func (h *Handler) owned(c *gin.Context) (*standup.Standup, bool) {
	st, err := h.standups.Get(c.Request.Context(), c.Param("id"))
	if err != nil || st.OwnerSub != c.GetString("sub") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return st, true
}

func (h *Handler) get(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) update(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name,omitempty"`
		Weekdays    *int    `json:"weekdays,omitempty"`
		MeetingTime *string `json:"meetingTime,omitempty"`
		Timezone    *string `json:"timezone,omitempty"`
		StartDate   *string `json:"startDate,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.Weekdays != nil {
		st.Weekdays = *req.Weekdays
	}
	if req.MeetingTime != nil {
		st.MeetingTime = *req.MeetingTime
	}
	if req.Timezone != nil {
		st.Timezone = *req.Timezone
	}
	if req.StartDate != nil {
		if *req.StartDate == "" {
			st.StartDate = time.Time{}
		} else {
			t, err := time.Parse(time.RFC3339, *req.StartDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be RFC 3339"})
				return
			}
			st.StartDate = t
		}
	}
	if _, err := st.Schedule(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.standups.Update(c.Request.Context(), st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update standup"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) delete(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	if err := h.standups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete standup"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) next(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	sched, err := st.Schedule()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"next": sched.Next(h.now()).Format(time.RFC3339)})
}

func (h *Handler) occurrences(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	sched, err := st.Schedule()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC 3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC 3339"})
		return
	}
	occs := sched.Between(start, end)
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		out = append(out, o.Format(time.RFC3339))
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": out})
}

// document returns the document for the upcoming occurrence, generating it
// on first access. An explicit date query targets a specific occurrence.
func (h *Handler) document(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	now := h.now()
	occ, ok := h.occurrenceParam(c, st, now)
	if !ok {
		return
	}
	doc, err := h.svc.GetOrCreateDocument(c.Request.Context(), st, occ, now, service.GenerateOptions{})
	if err != nil {
		h.generationError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) regenerate(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	var req struct {
		Force bool   `json:"force"`
		Date  string `json:"date,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	now := h.now()
	occ := time.Time{}
	if req.Date != "" {
		t, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC 3339"})
			return
		}
		occ = t
	} else {
		sched, err := st.Schedule()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		occ = sched.Next(now)
	}
	doc, err := h.svc.GetOrCreateDocument(c.Request.Context(), st, occ, now, service.GenerateOptions{Regenerate: true, Force: req.Force})
	if err != nil {
		h.generationError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) setWIP(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	var req struct {
		WIP  string `json:"wip"`
		Date string `json:"date,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := h.now()
	occ := time.Time{}
	if req.Date != "" {
		t, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC 3339"})
			return
		}
		occ = t
	} else {
		sched, err := st.Schedule()
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		occ = sched.Next(now)
	}
	doc, err := h.svc.SetWIP(c.Request.Context(), st.ID, occ, req.WIP)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save work in progress"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) documents(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	docs, err := h.svc.Documents(c.Request.Context(), st.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) recordAchievement(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
		EventStart  string `json:"eventStart,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := &standup.Achievement{StandupID: st.ID, Description: req.Description}
	if req.EventStart != "" {
		t, err := time.Parse(time.RFC3339, req.EventStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "eventStart must be RFC 3339"})
			return
		}
		a.EventStart = t
	}
	if _, err := h.svc.RecordAchievement(c.Request.Context(), a, h.now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) achievements(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	mode := c.DefaultQuery("window", "current")
	if mode != "current" && mode != "week" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be current or week"})
		return
	}
	found, w, err := h.svc.AchievementsInWindow(c.Request.Context(), st, h.now(), mode)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"achievements": found,
		"window":       gin.H{"start": w.Start, "end": w.End},
	})
}

func (h *Handler) calendar(c *gin.Context) {
	st, ok := h.owned(c)
	if !ok {
		return
	}
	feed, err := export.ICS(st, h.now(), 10)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// occurrenceParam resolves the optional date query, defaulting to the
// upcoming occurrence.
func (h *Handler) occurrenceParam(c *gin.Context, st *standup.Standup, now time.Time) (time.Time, bool) {
	if raw := c.Query("date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC 3339"})
			return time.Time{}, false
		}
		return t, true
	}
	sched, err := st.Schedule()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return sched.Next(now), true
}

func (h *Handler) generationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoAchievements):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, schedule.ErrEmptyMask), errors.Is(err, schedule.ErrBadTime), errors.Is(err, schedule.ErrBadTimezone):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
