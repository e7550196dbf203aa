package teacher

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/RealCodeCrafter/ERP/core"
)

var ErrNotFound = core.NewNotFoundError("teacher not found")

type (
	Teacher struct {
		ID           int       `json:"id"`
		FirstName    string    `json:"first_name"`
		LastName     string    `json:"last_name"`
		Phone        string    `json:"phone"`
		Username     string    `json:"username"`
		PasswordHash []byte    `json:"-"`
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		CreateTeacher(ctx context.Context, tch Teacher) (Teacher, error)
		GetTeacherByID(ctx context.Context, id int) (Teacher, error)
		GetTeacherByUsername(ctx context.Context, username string) (Teacher, error)
		QueryAllTeachers(ctx context.Context) ([]Teacher, error)
	}
)

func (t Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t *Teacher) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(t.PasswordHash, []byte(pwd))
}
