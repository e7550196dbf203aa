package group

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/student"
)

// Group lifecycle. A group is active while it is being taught, frozen after a
// member has been removed, and completed once a removal empties the roster.
type Status string

const (
	StatusActive    Status = "active"
	StatusFrozen    Status = "frozen"
	StatusCompleted Status = "completed"
)

// RemovalReason distinguishes a manual admin removal from the automatic
// non-payment removal. It selects the notification, not the transition.
type RemovalReason string

const (
	RemovalManual     RemovalReason = "manual"
	RemovalNonPayment RemovalReason = "non_payment"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("group not found")
	ErrNameExists     = core.NewConflictError("a group with this name already exists for this course")
	ErrAlreadyMember  = core.NewConflictError("student already in group")
	ErrNotMember      = core.NewConflictError("student not in group")
	ErrSameGroup      = core.NewConflictError("source and target groups are the same")
	ErrNoPaidPayment  = core.NewForbiddenError("no settled payment found for this student in the group")
	ErrCycleUnsettled = core.NewForbiddenError("the current payment cycle is not settled for this student")
)

type (
	Group struct {
		ID         int               `json:"id"`
		Name       string            `json:"name"`
		CourseID   int               `json:"course_id"`
		TeacherID  int               `json:"teacher_id"`
		Price      decimal.Decimal   `json:"price"` // per-cycle due amount
		StartTime  string            `json:"start_time"` // HH:MM
		EndTime    string            `json:"end_time"`   // HH:MM
		DaysOfWeek []string          `json:"days_of_week"`
		Status     Status            `json:"status"`
		Students   []student.Student `json:"students"`
		CreatedAt  time.Time         `json:"created_at"` // UTC
		UpdatedAt  time.Time         `json:"updated_at"` // UTC
	}

	Repository interface {
		// CheckNameUniqueness returns ErrNameExists when another group of the
		// same course already carries the name.
		CheckNameUniqueness(ctx context.Context, name string, courseID int, excludedGroups ...Group) error
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		// GetGroupByID loads the group with its roster.
		GetGroupByID(ctx context.Context, id int) (Group, error)
		FilterGroups(ctx context.Context, filter QueryFilter) ([]Group, error)
		QueryGroupsByTeacher(ctx context.Context, teacherID int) ([]Group, error)
		QueryGroupsByStudent(ctx context.Context, studentID int) ([]Group, error)
		UpdateGroup(ctx context.Context, grp Group) (Group, error)
		// SetRoster replaces the roster and the group status in one atomic
		// write; a roster mutation and its status recomputation must never be
		// observed apart.
		SetRoster(ctx context.Context, groupID int, studentIDs []int, status Status) error
		DeleteGroup(ctx context.Context, id int) error
	}
)

// HasStudent reports whether the student currently appears on the roster.
func (g *Group) HasStudent(studentID int) bool {
	for _, s := range g.Students {
		if s.ID == studentID {
			return true
		}
	}
	return false
}

// MeetsOn reports whether the group's schedule includes the given weekday.
func (g *Group) MeetsOn(day time.Weekday) bool {
	for _, d := range g.DaysOfWeek {
		if d == day.String() {
			return true
		}
	}
	return false
}

func (g *Group) studentIDs() []int {
	ids := make([]int, 0, len(g.Students))
	for _, s := range g.Students {
		ids = append(ids, s.ID)
	}
	return ids
}

// NewGroup contains information needed to open a new Group.
type NewGroup struct {
	Name       string          `json:"name" validate:"required"`
	CourseID   int             `json:"course_id" validate:"required"`
	TeacherID  int             `json:"teacher_id"`
	Price      decimal.Decimal `json:"price"`
	StartTime  string          `json:"start_time" validate:"omitempty,hhmm"`
	EndTime    string          `json:"end_time" validate:"omitempty,hhmm"`
	DaysOfWeek []string        `json:"days_of_week" validate:"dive,weekday"`
	StudentIDs []int           `json:"students"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	if err := core.Validate.Struct(ng); err != nil {
		return err
	}
	if ng.Price.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "price", Error: "must not be negative"})
	}
	return nil
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name       string   `json:"name"`
	StartTime  string   `json:"start_time" validate:"omitempty,hhmm"`
	EndTime    string   `json:"end_time" validate:"omitempty,hhmm"`
	DaysOfWeek []string `json:"days_of_week" validate:"omitempty,dive,weekday"`
}

func (ug *UpdateGroup) Validate() error {
	ug.Name = core.CleanString(ug.Name)
	return core.Validate.Struct(ug)
}

type QueryFilter struct {
	Name        string  `query:"name"`
	TeacherName string  `query:"teacher_name"`
	CourseID    *int    `query:"course_id"`
	Status      *Status `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Name == "" && qf.TeacherName == "" && qf.CourseID == nil && qf.Status == nil
}

func (qf *QueryFilter) Clean() {
	qf.Name = core.CleanString(qf.Name)
	qf.TeacherName = core.CleanString(qf.TeacherName)
}
