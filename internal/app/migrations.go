package app

// Schema pieces AutoMigrate cannot express: the raw-SQL outbox and accrual
// log tables, and the partial unique indexes that make concurrent duplicate
// submissions lose at the database rather than at the application check.
var rawMigrations = []string{
	`CREATE TABLE IF NOT EXISTS outbox_events (
        id uuid PRIMARY KEY,
        request_id text NOT NULL DEFAULT '',
        aggregate_type text NOT NULL,
        aggregate_id text NOT NULL,
        event_type text NOT NULL,
        topic text NOT NULL,
        payload jsonb NOT NULL,
        status text NOT NULL DEFAULT 'pending',
        retry_count int NOT NULL DEFAULT 0,
        last_error text,
        next_retry_at timestamptz,
        sent_at timestamptz,
        created_at timestamptz NOT NULL DEFAULT now()
    )`,

	// One credit per (policy, user, period); re-running an accrual tick
	// conflicts here and skips the pair.
	`CREATE TABLE IF NOT EXISTS accrual_log (
        policy_id uuid NOT NULL,
        user_id uuid NOT NULL,
        period text NOT NULL,
        credited_days numeric(6,2) NOT NULL,
        created_at timestamptz NOT NULL DEFAULT now(),
        PRIMARY KEY (policy_id, user_id, period)
    )`,

	// Only live requests block a resubmission; rejected and cancelled
	// spans stay reusable.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_leave_requests_active_span
        ON leave_requests (user_id, leave_type_id, start_date, end_date)
        WHERE status IN ('pending', 'approved')`,

	`CREATE UNIQUE INDEX IF NOT EXISTS uq_wfh_requests_active_span
        ON wfh_requests (user_id, start_date, end_date)
        WHERE status IN ('pending', 'approved')`,
}
