// backend/database/record_store_test.go
package database

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramdarpan/mgnrega/backend/models"
)

// The upsert must replace the full record on conflict: every non-key column
// reaches the update clause, the key columns never do, and updated_at is
// touched even when the values are unchanged. This catches an indicator
// column added to indicatorColumns without reaching the update list.
func TestUpsertSQLReplacesFullRecord(t *testing.T) {
	parts := strings.SplitN(upsertSQL, "ON DUPLICATE KEY UPDATE", 2)
	require.Len(t, parts, 2, "upsert must resolve conflicts in place")
	insertClause, updateClause := parts[0], parts[1]

	for _, col := range insertColumns {
		assert.Contains(t, insertClause, col)
	}
	assert.Equal(t, len(insertColumns), strings.Count(insertClause, "?"),
		"one placeholder per inserted column")

	for _, col := range indicatorColumns {
		assert.Contains(t, updateClause, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	for _, col := range []string{"district_name", "state_code", "state_name", "period_index", "fetched_from"} {
		assert.Contains(t, updateClause, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}

	for _, key := range []string{"district_code", "fin_year", "month"} {
		assert.NotContains(t, updateClause, fmt.Sprintf("%s = VALUES(%s)", key, key),
			"key column %s must not be rewritten", key)
	}

	// A refresh that re-saves identical values must still reset the
	// staleness clock.
	assert.Contains(t, updateClause, "updated_at = NOW()")
}

// indicatorValues, indicatorPtrs, and indicatorColumns share one fixed
// order; a length drift between them would misalign every scan.
func TestIndicatorListsStayAligned(t *testing.T) {
	var r models.Record
	assert.Equal(t, len(indicatorColumns), len(indicatorValues(&r)))
	assert.Equal(t, len(indicatorColumns), len(indicatorPtrs(&r)))
}
