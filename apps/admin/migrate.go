package main

import (
	"fmt"

	"github.com/RealCodeCrafter/ERP/storage/database"
)

var migrationRunFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	command := args[0]
	switch command {
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	return migrationRunFunc(command, cli.db.DB, args[1:]...)
}
