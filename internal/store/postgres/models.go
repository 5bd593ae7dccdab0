package postgres

import (
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mschirtzinger/jobtrack/internal/types"
)

// applicationModel maps the applications table of the Supabase schema.
type applicationModel struct {
	ID            string         `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        string         `gorm:"column:user_id;type:uuid;index;not null"`
	CompanyName   string         `gorm:"column:company_name;type:text;not null"`
	Position      string         `gorm:"column:position;type:text;not null"`
	DateApplied   time.Time      `gorm:"column:date_applied;type:date;not null"`
	Status        string         `gorm:"column:status;type:text;not null;default:'Applied'"`
	Notes         *string        `gorm:"column:notes;type:text"`
	RecontactDate *time.Time     `gorm:"column:recontact_date;type:date"`
	CustomTags    pq.StringArray `gorm:"column:custom_tags;type:text[];not null;default:'{}'"`
	IsArchived    bool           `gorm:"column:is_archived;not null;default:false"`
	CreatedAt     time.Time      `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (applicationModel) TableName() string { return "applications" }

// analyticsModel maps the per-user analytics table.
type analyticsModel struct {
	ID                   string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID               string    `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	TotalApplications    int       `gorm:"column:total_applications;not null;default:0"`
	ActiveApplications   int       `gorm:"column:active_applications;not null;default:0"`
	InterviewsScheduled  int       `gorm:"column:interviews_scheduled;not null;default:0"`
	RejectedApplications int       `gorm:"column:rejected_applications;not null;default:0"`
	LastUpdated          time.Time `gorm:"column:last_updated;type:timestamptz;not null;default:now()"`
}

func (analyticsModel) TableName() string { return "analytics" }

func newApplicationModel(owner string, d types.Draft) (applicationModel, error) {
	d.SetDefaults()

	applied, err := time.Parse(types.DateLayout, d.DateApplied)
	if err != nil {
		return applicationModel{}, fmt.Errorf("invalid date_applied %q: %w", d.DateApplied, err)
	}

	m := applicationModel{
		UserID:      owner,
		CompanyName: d.CompanyName,
		Position:    d.Position,
		DateApplied: applied,
		Status:      string(d.Status),
		Notes:       d.Notes,
		CustomTags:  pq.StringArray(d.CustomTags),
		IsArchived:  d.IsArchived,
	}
	if rc := d.RecontactText(); rc != "" {
		t, err := time.Parse(types.DateLayout, rc)
		if err != nil {
			return applicationModel{}, fmt.Errorf("invalid recontact_date %q: %w", rc, err)
		}
		m.RecontactDate = &t
	}
	return m, nil
}

func (m *applicationModel) application() types.Application {
	tags := []string(m.CustomTags)
	if tags == nil {
		tags = []string{}
	}

	app := types.Application{
		ID:    m.ID,
		Owner: m.UserID,
		Draft: types.Draft{
			CompanyName: m.CompanyName,
			Position:    m.Position,
			DateApplied: m.DateApplied.Format(types.DateLayout),
			Status:      types.CoerceStatus(m.Status),
			Notes:       m.Notes,
			CustomTags:  tags,
			IsArchived:  m.IsArchived,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.RecontactDate != nil {
		app.RecontactDate = types.String(m.RecontactDate.Format(types.DateLayout))
	}
	return app
}

func (m *analyticsModel) analytics() *types.Analytics {
	return &types.Analytics{
		ID:                   m.ID,
		Owner:                m.UserID,
		TotalApplications:    m.TotalApplications,
		ActiveApplications:   m.ActiveApplications,
		InterviewsScheduled:  m.InterviewsScheduled,
		RejectedApplications: m.RejectedApplications,
		LastUpdated:          m.LastUpdated,
	}
}

// patchValues converts patch columns to values GORM can bind.
func patchValues(p types.Patch) map[string]any {
	values := p.Fields()
	if tags, ok := values["custom_tags"].([]string); ok {
		values["custom_tags"] = pq.StringArray(tags)
	}
	if rc, ok := values["recontact_date"].(string); ok && rc == "" {
		values["recontact_date"] = nil
	}
	return values
}
