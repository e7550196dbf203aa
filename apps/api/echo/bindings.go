package echoapi

import "github.com/RealCodeCrafter/ERP/core"

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	EnrollmentRequest struct {
		StudentID int `json:"student_id" validate:"required"`
	}

	TransferRequest struct {
		FromGroupID int `json:"from_group_id" validate:"required"`
		ToGroupID   int `json:"to_group_id" validate:"required"`
		StudentID   int `json:"student_id" validate:"required"`
	}
)

func (r *LoginRequest) Validate() error {
	r.Username = core.CleanString(r.Username, true)
	return core.Validate.Struct(r)
}

func (r *EnrollmentRequest) Validate() error {
	return core.Validate.Struct(r)
}

func (r *TransferRequest) Validate() error {
	return core.Validate.Struct(r)
}
