package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorDump is the log-only view of an error. Details are never filtered
// here; responses decide what reaches the client.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Details    any      `json:"details,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	// Record holds the details of the first malformed price record in the
	// chain, even when a caller re-wrapped it under another code.
	Record any `json:"record,omitempty"`

	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Details = te.Details()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		if te, ok := e.(*Error); ok && d.Record == nil && te.Code() == CodeMalformedRecord {
			d.Record = te.Details()
		}
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		return d
	}

	fillSQLiteConstraint(&d, err.Error())
	return d
}

var sqliteConstraintKinds = []string{"UNIQUE", "NOT NULL", "FOREIGN KEY", "PRIMARY KEY", "CHECK"}

// sqlite reports constraint failures only as text, e.g.
// "UNIQUE constraint failed: prices.store_id, prices.product_name".
func fillSQLiteConstraint(d *ErrorDump, msg string) {
	for _, kind := range sqliteConstraintKinds {
		marker := kind + " constraint failed"
		idx := strings.Index(msg, marker)
		if idx < 0 {
			continue
		}
		d.DBCode = "SQLITE_CONSTRAINT_" + strings.ReplaceAll(kind, " ", "")
		d.DBDetail = msg[idx:]

		rest := strings.TrimSpace(strings.TrimPrefix(msg[idx+len(marker):], ":"))
		if rest == "" {
			return
		}
		d.DBConstraint = rest

		var table string
		var cols []string
		for _, part := range strings.Split(rest, ",") {
			tbl, col, ok := strings.Cut(strings.TrimSpace(part), ".")
			if !ok {
				return
			}
			table = tbl
			cols = append(cols, col)
		}
		d.DBTable = table
		d.DBColumn = strings.Join(cols, ",")
		return
	}
}
