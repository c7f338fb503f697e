package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repository reacts to.
const (
	mysqlErrDupEntry = 1062 // ER_DUP_ENTRY
	mysqlErrDeadlock = 1213 // ER_LOCK_DEADLOCK
)

// classifyWrite maps driver errors that mean "another ticket got the seat
// first" onto ErrSeatTaken. The driver error stays in the chain.
// Everything else is returned unchanged.
func classifyWrite(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDupEntry, mysqlErrDeadlock:
			return fmt.Errorf("%w: %w", ErrSeatTaken, err)
		}
	}
	return err
}
