package main

import (
	"context"

	echoapi "github.com/RealCodeCrafter/ERP/apps/api/echo"
)

func (cli *commandLine) makeToken(uname string, isTeacher bool) error {
	ctx := context.Background()

	var claims *echoapi.Claims
	if isTeacher {
		tch, err := cli.teachers.GetTeacherByUsername(ctx, uname)
		if err != nil {
			return err
		}
		claims = echoapi.GetTeacherClaims(cli.conf, tch)
	} else {
		op, err := cli.ops.GetOperatorByUsername(ctx, uname)
		if err != nil {
			return err
		}
		claims = echoapi.GetOperatorClaims(cli.conf, op)
	}

	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	logger.Printf("token for %q:\n%s\n", uname, token)
	return nil
}
