package domain

import "time"

// AnnouncementAudience restricts who sees an announcement.
type AnnouncementAudience string

const (
	AudienceAll      AnnouncementAudience = "all"
	AudienceStudents AnnouncementAudience = "students"
	AudienceStaff    AnnouncementAudience = "staff"
)

// Valid reports whether a is a known audience.
func (a AnnouncementAudience) Valid() bool {
	return a == AudienceAll || a == AudienceStudents || a == AudienceStaff
}

// AudiencesFor lists the audiences visible to a role.
func AudiencesFor(role UserRole) []AnnouncementAudience {
	if role.IsStaff() {
		return []AnnouncementAudience{AudienceAll, AudienceStaff}
	}
	return []AnnouncementAudience{AudienceAll, AudienceStudents}
}

// Announcement is a broadcast message posted by staff.
type Announcement struct {
	ID        string
	AuthorID  string
	Title     string
	Body      string
	Audience  AnnouncementAudience
	CreatedAt time.Time
}
