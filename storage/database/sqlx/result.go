package sqlxrepos

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core"
)

// checkSingleRow fails with notFound when no row was affected. More than one row
// affected by a primary key statement means the schema lost its integrity.
func checkSingleRow(res sql.Result, table string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	switch {
	case n == 0:
		return notFound
	case n > 1:
		return core.NewShutdownError(fmt.Sprintf("%d rows of %s affected by a primary key statement", n, table))
	}
	return nil
}
