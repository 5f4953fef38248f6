package types

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Job types accepted by the API.
const (
	JobTypePermanent  = "Permanent"
	JobTypePartTime   = "Part-time"
	JobTypeInternship = "Internship"
)

// Job statuses accepted by the API. New jobs default to published.
const (
	JobStatusPublished = "published"
	JobStatusDraft     = "draft"
	JobStatusClosed    = "closed"
)

// Job represents a job posting managed through the back-office.
type Job struct {
	// ID is the unique identifier of the job posting.
	ID int `json:"id" db:"id"`

	// Title is the headline of the posting.
	Title string `json:"title" db:"title"`

	// JobDescription contains the full description shown to applicants.
	JobDescription string `json:"jobDescription" db:"job_description"`

	// JobType is one of Permanent, Part-time or Internship.
	JobType string `json:"jobType" db:"job_type"`

	// Location is the workplace location of the posting.
	Location string `json:"location" db:"location"`

	// Salary is the offered salary. Clients may submit it as a number
	// or a numeric string; it is always returned as a number.
	Salary Salary `json:"salary" db:"salary"`

	// PostedDate is the timestamp the posting went live.
	PostedDate time.Time `json:"postedDate" db:"posted_date"`

	// JobStatus is one of published, draft or closed.
	JobStatus string `json:"jobStatus" db:"job_status"`

	// JobTime is the working-hours descriptor, e.g. "09:00-18:00".
	JobTime string `json:"jobTime" db:"job_time"`

	// Active indicates whether the posting is visible on the public site.
	Active bool `json:"active" db:"active"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Count carries related-record counts included in read responses.
	Count JobCount `json:"_count"`
}

// JobCount holds counts of records related to a job.
type JobCount struct {
	// Applications is the number of applications received for the job.
	Applications int `json:"applications"`
}

// JobUpdate describes a partial update to a job. Nil fields are left
// unchanged.
type JobUpdate struct {
	Title          *string
	JobDescription *string
	JobType        *string
	Location       *string
	Salary         *Salary
	JobTime        *string
	JobStatus      *string
}

// Salary is a non-negative amount that decodes from either a JSON
// number or a numeric string.
type Salary float64

func (s *Salary) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return errors.New("salary must not be null")
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return errors.New("salary must be numeric")
		}
		*s = Salary(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.New("salary must be numeric")
	}
	*s = Salary(value)
	return nil
}
