package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMigration(t *testing.T, fragment string) string {
	t.Helper()
	for _, stmt := range rawMigrations {
		if strings.Contains(stmt, fragment) {
			return stmt
		}
	}
	require.Failf(t, "migration missing", "no raw migration mentions %q", fragment)
	return ""
}

func TestLeaveDuplicateIndexIsPartialAndUnique(t *testing.T) {
	stmt := findMigration(t, "uq_leave_requests_active_span")

	assert.Contains(t, stmt, "CREATE UNIQUE INDEX")
	assert.Contains(t, stmt, "(user_id, leave_type_id, start_date, end_date)")
	assert.Contains(t, stmt, "WHERE status IN ('pending', 'approved')")
}

func TestWFHDuplicateIndexIsPartialAndUnique(t *testing.T) {
	stmt := findMigration(t, "uq_wfh_requests_active_span")

	assert.Contains(t, stmt, "CREATE UNIQUE INDEX")
	assert.Contains(t, stmt, "(user_id, start_date, end_date)")
	assert.Contains(t, stmt, "WHERE status IN ('pending', 'approved')")
}

func TestAccrualLogKeyedByPolicyUserPeriod(t *testing.T) {
	stmt := findMigration(t, "accrual_log")

	assert.Contains(t, stmt, "PRIMARY KEY (policy_id, user_id, period)")
}
