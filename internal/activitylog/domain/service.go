package domain

import (
	"context"
	"errors"
	"time"

	"github.com/alprail/membership/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

// RecordRequest describes one activity to append.
type RecordRequest struct {
	ActorID     *snowflake.ID
	Action      string
	SubjectType string
	SubjectID   *snowflake.ID
	Description string
	Properties  map[string]any
	IPAddress   string
	UserAgent   string
}

type ListEntryRequest struct {
	pagination.Pagination
	Action      string     `form:"action"`
	SubjectType string     `form:"subject_type"`
	SubjectID   string     `form:"subject_id"`
	StartAt     *time.Time `form:"start_at" time_format:"2006-01-02T15:04:05Z07:00"`
	EndAt       *time.Time `form:"end_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type ListEntryResponse struct {
	pagination.PageInfo
	Entries []*Entry `json:"entries"`
}

type Service interface {
	// Record appends an activity entry. Failures are logged by the service;
	// callers on the billing path treat the returned error as best-effort.
	Record(ctx context.Context, req RecordRequest) error
	List(ctx context.Context, req ListEntryRequest) (ListEntryResponse, error)
	PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidSubject   = errors.New("invalid_subject")
)
