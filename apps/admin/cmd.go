package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sqlx.DB
	teachers teacher.Repository
	ops      operator.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status|version - run database migrations")
	fmt.Println("  addoperator -username USERNAME [-email EMAIL] [-phone PHONE] [-alerts] - create an operator; the password is prompted next")
	fmt.Println("  addteacher -username USERNAME [-phone PHONE] - create a teacher; the password is prompted next")
	fmt.Println("  mktoken -username USERNAME [-teacher] - print an API token for an existing operator or teacher")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addOperatorCmd := flag.NewFlagSet("addoperator", flag.ExitOnError)
	addOperatorUname := addOperatorCmd.String("username", "", "The operator's username.")
	addOperatorEmail := addOperatorCmd.String("email", "", "The operator's email address.")
	addOperatorPhone := addOperatorCmd.String("phone", "", "The operator's phone number.")
	addOperatorAlerts := addOperatorCmd.Bool("alerts", false, "Subscribe the operator to sweep alerts.")

	addTeacherCmd := flag.NewFlagSet("addteacher", flag.ExitOnError)
	addTeacherUname := addTeacherCmd.String("username", "", "The teacher's username.")
	addTeacherPhone := addTeacherCmd.String("phone", "", "The teacher's phone number.")

	mkTokenCmd := flag.NewFlagSet("mktoken", flag.ExitOnError)
	mkTokenUname := mkTokenCmd.String("username", "", "The principal's username.")
	mkTokenTeacher := mkTokenCmd.Bool("teacher", false, "Look the username up among teachers instead of operators.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addoperator":
		if err := addOperatorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addOperatorUname == "" {
			addOperatorCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addOperatorCmd.Usage()
			return errHelp
		}
		return cli.addOperator(*addOperatorUname, *addOperatorEmail, *addOperatorPhone, pwd, *addOperatorAlerts)

	case "addteacher":
		if err := addTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTeacherUname == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		return cli.addTeacher(*addTeacherUname, *addTeacherPhone, pwd)

	case "mktoken":
		if err := mkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *mkTokenUname == "" {
			mkTokenCmd.Usage()
			return errHelp
		}
		return cli.makeToken(*mkTokenUname, *mkTokenTeacher)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
