package student

import (
	"context"
	"time"

	"github.com/RealCodeCrafter/ERP/core"
)

var ErrNotFound = core.NewNotFoundError("student not found")

type (
	Student struct {
		ID          int       `json:"id"`
		FirstName   string    `json:"first_name"`
		LastName    string    `json:"last_name"`
		Phone       string    `json:"phone"`
		Address     string    `json:"address"`
		ParentName  string    `json:"parent_name"`
		ParentPhone string    `json:"parent_phone"`
		CreatedAt   time.Time `json:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
	}
)

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Address     string `json:"address"`
	ParentName  string `json:"parent_name"`
	ParentPhone string `json:"parent_phone"`
}

func (ns *NewStudent) Validate() error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.ParentName = core.CleanString(ns.ParentName)
	ns.ParentPhone = core.CleanString(ns.ParentPhone)
	return core.Validate.Struct(ns)
}
