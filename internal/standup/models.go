package standup

import (
	"time"

	"github.com/standupdoc/standupdoc/internal/schedule"
)

// Source records who last wrote a document's WIP text.
type Source string

const (
	SourceManual    Source = "manual"
	SourceGenerated Source = "generated"
)

// Standup is a user-defined recurring meeting. The recurrence fields are
// stored raw and validated into a schedule.Schedule on use, so a row with
// a timezone the host no longer knows fails loudly instead of silently
// drifting.
type Standup struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	OwnerSub    string    `json:"ownerSub" bson:"ownerSub"`
	Name        string    `json:"name" bson:"name"`
	Weekdays    int       `json:"weekdays" bson:"weekdays"` // schedule.Mask bits, bit 0 = Sunday
	MeetingTime string    `json:"meetingTime" bson:"meetingTime"`
	Timezone    string    `json:"timezone" bson:"timezone"`
	StartDate   time.Time `json:"startDate,omitempty" bson:"startDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Schedule builds the validated recurrence engine for this standup.
func (s *Standup) Schedule() (*schedule.Schedule, error) {
	return schedule.New(schedule.Mask(s.Weekdays), s.MeetingTime, s.Timezone, s.StartDate)
}

// Document is the one generated artifact per standup occurrence. At most
// one exists per (StandupID, Date) pair; the repositories enforce it.
type Document struct {
	ID                  string    `json:"id" bson:"_id,omitempty"`
	StandupID           string    `json:"standupId" bson:"standupId"`
	Date                time.Time `json:"date" bson:"date"` // occurrence instant, UTC
	WIP                 string    `json:"wip" bson:"wip"`
	AchievementsSummary string    `json:"achievementsSummary" bson:"achievementsSummary"`
	Source              Source    `json:"source" bson:"source"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Achievement is a unit of work a user recorded. EventStart is when the
// work actually happened; windowing always filters on it, never on
// CreatedAt, so late-recorded achievements land in their real period.
type Achievement struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	StandupID   string    `json:"standupId" bson:"standupId"`
	DocumentID  string    `json:"documentId,omitempty" bson:"documentId,omitempty"`
	Description string    `json:"description" bson:"description"`
	EventStart  time.Time `json:"eventStart" bson:"eventStart"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
