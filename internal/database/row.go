package database

import "github.com/koustreak/dsqldump/internal/errs"

// ScanRows reads all rows from the result set and returns them as a slice
// of maps, where each key is the column name and each value is the Go-native
// representation of the DB value.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows; callers do not need to call Close().
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)
	err = eachRow(rows, len(columns), func(values []any) {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ScanValues reads all rows positionally. Each inner slice has one entry per
// result column, in select-list order.
// ScanValues always closes the Rows.
func ScanValues(rows Rows) ([][]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([][]any, 0)
	err = eachRow(rows, len(columns), func(values []any) {
		result = append(result, values)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func eachRow(rows Rows, width int, fn func([]any)) error {
	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, width)
		destPtrs := make([]any, width)
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}
		fn(dest)
	}

	if err := rows.Err(); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}
	return nil
}
