package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	DBEngine     string `json:"db_engine,omitempty"`
	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

// Fields flattens the dump into log fields, skipping empty database details.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	for key, value := range map[string]string{
		"db_engine":     d.DBEngine,
		"db_code":       d.DBCode,
		"db_constraint": d.DBConstraint,
		"db_table":      d.DBTable,
		"db_column":     d.DBColumn,
		"db_detail":     d.DBDetail,
		"db_message":    d.DBMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.DBEngine = "postgres"
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.DBEngine = "postgres"
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
		return d
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		d.DBEngine = "sqlite"
		d.DBCode = fmt.Sprintf("%d/%d", int(liteErr.Code), int(liteErr.ExtendedCode))
		d.DBMessage = liteErr.Error()
		return d
	}

	return d
}
