package postgres

import (
	"context"
	"fmt"
)

// analyticsTriggerSQL keeps analytics in step with applications on a
// self-hosted database. Supabase projects ship their own equivalent.
const analyticsTriggerSQL = `
CREATE OR REPLACE FUNCTION jobtrack_refresh_analytics() RETURNS trigger AS $$
DECLARE
	uid uuid := COALESCE(NEW.user_id, OLD.user_id);
BEGIN
	INSERT INTO analytics (
		user_id, total_applications, active_applications,
		interviews_scheduled, rejected_applications, last_updated
	)
	SELECT
		uid,
		COUNT(*),
		COUNT(*) FILTER (WHERE NOT is_archived AND status <> 'Rejected'),
		COUNT(*) FILTER (WHERE status = 'Interview'),
		COUNT(*) FILTER (WHERE status = 'Rejected'),
		now()
	FROM applications
	WHERE user_id = uid
	ON CONFLICT (user_id) DO UPDATE SET
		total_applications = excluded.total_applications,
		active_applications = excluded.active_applications,
		interviews_scheduled = excluded.interviews_scheduled,
		rejected_applications = excluded.rejected_applications,
		last_updated = excluded.last_updated;
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS jobtrack_analytics ON applications;
CREATE TRIGGER jobtrack_analytics
	AFTER INSERT OR UPDATE OR DELETE ON applications
	FOR EACH ROW EXECUTE FUNCTION jobtrack_refresh_analytics();
`

const statusCheckSQL = `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'applications_status_check'
	) THEN
		ALTER TABLE applications ADD CONSTRAINT applications_status_check
			CHECK (status IN ('Applied', 'Waiting', 'Interview', 'Rejected'));
	END IF;
END
$$;
`

// Migrate creates the applications and analytics tables, the status
// constraint and the analytics trigger. Use it for self-hosted databases;
// a Supabase project already has this schema.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.AutoMigrate(&applicationModel{}, &analyticsModel{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	if err := db.Exec(statusCheckSQL).Error; err != nil {
		return fmt.Errorf("failed to add status constraint: %w", err)
	}
	if err := db.Exec(analyticsTriggerSQL).Error; err != nil {
		return fmt.Errorf("failed to install analytics trigger: %w", err)
	}
	return nil
}
