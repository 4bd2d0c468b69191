package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/fatih/structs"
)

// QueryParams encapsulates all query parameters
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword
	// Example: "ScenarioID = ? AND Hit = ?"
	Where string

	// Args holds the arguments for the placeholders in Where
	Args []any

	// Limit is the maximum number of records to return. Set to 0 for no
	// limit.
	Limit int

	// Offset is the number of records to skip
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords
	// Example: "Seq ASC"
	OrderBy string
}

// DataReader reads records written by a DataRecorder.
type DataReader interface {
	// MapTable establishes a mapping between a database table and a Go struct
	// type. This mapping is required before querying a table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns a list of all tables that have been mapped.
	ListTables() []string

	// Query executes a query on a table and returns pointers to the mapped
	// struct type.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader
	Close() error
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

// NewReader opens an existing SQLite file read-only. A missing file is an
// error rather than a new empty database.
func NewReader(dbFilename string) (DataReader, error) {
	if _, err := os.Stat(dbFilename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+dbFilename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a new DataReader with a given database
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for table := range r.typeMap {
		tables = append(tables, table)
	}

	sort.Strings(tables)

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int

	err := r.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.whereClause(),
		params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.QueryContext(ctx,
		"SELECT * FROM "+tableName+params.whereClause()+params.pageClause(),
		params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows, entryType)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (p QueryParams) whereClause() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) pageClause() string {
	clause := ""

	if p.OrderBy != "" {
		clause += " ORDER BY " + p.OrderBy
	}

	if p.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", p.Limit)
	}

	if p.Limit > 0 && p.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", p.Offset)
	}

	return clause
}

// scanEntries decodes each row into a new entry. Columns are matched to
// fields by the same names CreateTable gave them; unknown columns are
// dropped.
func scanEntries(rows *sql.Rows, entryType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	sample := reflect.New(entryType).Elem().Interface()
	known := make(map[string]bool)

	for _, name := range structs.Names(sample) {
		known[name] = true
	}

	var entries []any

	for rows.Next() {
		entry := reflect.New(entryType)
		targets := make([]any, len(columns))

		for i, column := range columns {
			if !known[column] {
				targets[i] = new(any)
				continue
			}

			targets[i] = entry.Elem().FieldByName(column).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		entries = append(entries, entry.Interface())
	}

	return entries, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
