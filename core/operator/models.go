// Package operator models the back-office staff who receive scheduler alerts
// and record payments.
package operator

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/RealCodeCrafter/ERP/core"
)

var ErrNotFound = core.NewNotFoundError("operator not found")

type (
	Operator struct {
		ID           int       `json:"id"`
		FirstName    string    `json:"first_name"`
		LastName     string    `json:"last_name"`
		Phone        string    `json:"phone"`
		Email        string    `json:"email"`
		Username     string    `json:"username"`
		PasswordHash []byte    `json:"-"`
		AlertsOn     bool      `json:"alerts_on"` // subscribed to sweep notifications
		CreatedAt    time.Time `json:"created_at"` // UTC
		UpdatedAt    time.Time `json:"updated_at"` // UTC
	}

	Repository interface {
		CreateOperator(ctx context.Context, op Operator) (Operator, error)
		GetOperatorByID(ctx context.Context, id int) (Operator, error)
		GetOperatorByUsername(ctx context.Context, username string) (Operator, error)
		// QueryAlertSubscribers returns operators with AlertsOn set.
		QueryAlertSubscribers(ctx context.Context) ([]Operator, error)
	}
)

func (o Operator) FullName() string {
	return o.FirstName + " " + o.LastName
}

func (o *Operator) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = hash
	return nil
}

func (o *Operator) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(o.PasswordHash, []byte(pwd))
}
