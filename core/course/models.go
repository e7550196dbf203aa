package course

import (
	"context"
	"time"

	"github.com/RealCodeCrafter/ERP/core"
)

var ErrNotFound = core.NewNotFoundError("course not found")

type (
	Course struct {
		ID          int       `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}

	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id int) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
	}
)
