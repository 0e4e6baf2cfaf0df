package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// defaultBatchSize is used for bulk inserts and chunked IN queries.
const defaultBatchSize = 500

// exists reports whether a row of model matches the condition.
// Not found is the expected answer for fresh events, so it is not an error.
func exists(ctx context.Context, db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	err := db.WithContext(ctx).Model(model).Select("id").Where(query, args...).Take(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// chunk splits keys for IN queries so large runs stay under the driver's parameter limit.
func chunk(keys []string, size int) [][]string {
	var out [][]string
	for len(keys) > size {
		out = append(out, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		out = append(out, keys)
	}
	return out
}
