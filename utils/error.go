package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

func ErrorInvalidEnum(field string, value string) error {
	return fmt.Errorf("invalid %s: %q", field, value)
}

func ErrorNegativeAmount(field string) error {
	return fmt.Errorf("%s must not be negative", field)
}

// IsDuplicateEntryError reports a MySQL unique-constraint violation (1062).
func IsDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
