package lesson

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/RealCodeCrafter/ERP/core"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("lesson not found")
	ErrNoLessons = core.NewNotFoundError("no lessons found for this group")
)

type (
	Lesson struct {
		ID        int       `json:"id"`
		GroupID   int       `json:"group_id"`
		Name      string    `json:"name"`
		Number    int       `json:"number"` // sequential within the group
		Date      time.Time `json:"date"`
		EndDate   null.Time `json:"end_date,omitempty"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		GetLessonByID(ctx context.Context, id int) (Lesson, error)
		QueryLessonsByGroup(ctx context.Context, groupID int, filter QueryFilter) ([]Lesson, error)
		// QueryLessonsBetween returns lessons scheduled inside [from, to],
		// across all groups. Used by the attendance sweep.
		QueryLessonsBetween(ctx context.Context, from, to time.Time) ([]Lesson, error)
		// FirstLessonDate returns the date of the group's earliest lesson;
		// ok is false when the group has none.
		FirstLessonDate(ctx context.Context, groupID int) (date time.Time, ok bool, err error)
		// NextLessonNumber returns the sequential number the group's next
		// lesson should carry.
		NextLessonNumber(ctx context.Context, groupID int) (int, error)
		UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id int) error
	}
)

// NewLesson contains information needed to schedule a new Lesson.
type NewLesson struct {
	GroupID int        `json:"group_id" validate:"required"`
	Name    string     `json:"name"`
	Date    time.Time  `json:"date"`
	EndDate *time.Time `json:"end_date"`
}

func (nl *NewLesson) Validate() error {
	nl.Name = core.CleanString(nl.Name)
	return core.Validate.Struct(nl)
}

// UpdateLesson defines the display fields that may change after creation.
// The lesson date and its group are immutable.
type UpdateLesson struct {
	Name    string     `json:"name"`
	EndDate *time.Time `json:"end_date"`
}

type QueryFilter struct {
	Date time.Time `query:"date"` // lessons on this calendar day only
}
