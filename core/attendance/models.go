package attendance

import (
	"context"
	"time"

	"github.com/RealCodeCrafter/ERP/core"
)

// Status is the recorded outcome for one student at one lesson.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("attendance record not found")
	ErrDuplicate = core.NewConflictError("attendance already marked for this student and lesson")
	ErrNotMember = core.NewConflictError("student is not a member of the group")
	ErrBadStatus = core.NewConflictError("unknown attendance status")
)

type (
	Attendance struct {
		ID        int       `json:"id"`
		LessonID  int       `json:"lesson_id"`
		GroupID   int       `json:"group_id"`
		StudentID int       `json:"student_id"`
		Status    Status    `json:"status"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		GetAttendanceByStudentLesson(ctx context.Context, studentID, lessonID int) (Attendance, error)
		QueryAttendanceByLesson(ctx context.Context, lessonID int) ([]Attendance, error)
		QueryAttendanceByStudentGroup(ctx context.Context, studentID, groupID int) ([]Attendance, error)
		// QueryAttendanceByGroupDate returns the group's records for lessons
		// held on one calendar day.
		QueryAttendanceByGroupDate(ctx context.Context, groupID int, date time.Time) ([]Attendance, error)
		// HasAttendanceForLesson reports whether any record exists for the
		// lesson. Used by the reminder sweep.
		HasAttendanceForLesson(ctx context.Context, lessonID int) (bool, error)
		UpdateAttendance(ctx context.Context, att Attendance) (Attendance, error)
	}
)

// Entry is one student's status in a marking or correction batch.
type Entry struct {
	StudentID int    `json:"student_id" validate:"required"`
	Status    Status `json:"status" validate:"required"`
}

// Outcome reports, per batch entry, either the persisted record or the reason
// the entry was rejected. Entries fail independently of each other.
type Outcome struct {
	StudentID  int         `json:"student_id"`
	Attendance *Attendance `json:"attendance,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Stats aggregates one student's record within a group.
type Stats struct {
	StudentID int `json:"student_id"`
	GroupID   int `json:"group_id"`
	Present   int `json:"present"`
	Absent    int `json:"absent"`
	Late      int `json:"late"`
}
