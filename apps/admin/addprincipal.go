package main

import (
	"context"
	"errors"
	"time"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

var errUsernameTaken = errors.New("username already taken")

func (cli *commandLine) addOperator(uname, email, phone, pwd string, alerts bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	if _, err := cli.ops.GetOperatorByUsername(ctx, uname); err == nil {
		return errUsernameTaken
	} else if !core.IsNotFound(err) {
		return err
	}
	if err := core.ValidatePassword(pwd, uname, email); err != nil {
		return err
	}

	now := time.Now().UTC()
	op := operator.Operator{
		FirstName: uname,
		Username:  uname,
		Email:     email,
		Phone:     phone,
		AlertsOn:  alerts,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := op.SetPassword(pwd); err != nil {
		return err
	}
	op, err := cli.ops.CreateOperator(ctx, op)
	if err != nil {
		return err
	}
	logger.Printf("operator %q created (id %d)\n", op.Username, op.ID)
	return nil
}

func (cli *commandLine) addTeacher(uname, phone, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	if _, err := cli.teachers.GetTeacherByUsername(ctx, uname); err == nil {
		return errUsernameTaken
	} else if !core.IsNotFound(err) {
		return err
	}
	if err := core.ValidatePassword(pwd, uname); err != nil {
		return err
	}

	now := time.Now().UTC()
	tch := teacher.Teacher{
		FirstName: uname,
		Username:  uname,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tch.SetPassword(pwd); err != nil {
		return err
	}
	tch, err := cli.teachers.CreateTeacher(ctx, tch)
	if err != nil {
		return err
	}
	logger.Printf("teacher %q created (id %d)\n", tch.Username, tch.ID)
	return nil
}
