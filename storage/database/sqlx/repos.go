// Package sqlxrepos implements the aggregate repositories over Postgres.
// Core models carry no storage tags; each repository maps through its own
// row type.
package sqlxrepos

import (
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
)

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// trapNoRowsErr converts the driver's no-rows error to the aggregate's own
// not-found sentinel and wraps anything else.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
