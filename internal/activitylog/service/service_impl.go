package service

import (
	"context"
	"strings"

	"github.com/alprail/membership/internal/activitylog/domain"
	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("activitylog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) error {
	action := strings.TrimSpace(req.Action)
	if action == "" {
		return domain.ErrInvalidAction
	}

	subjectType := strings.TrimSpace(req.SubjectType)
	if subjectType == "" {
		subjectType = "unknown"
	}

	properties := map[string]any{}
	for key, value := range req.Properties {
		if key == "" {
			continue
		}
		properties[key] = value
	}

	entry := domain.Entry{
		ID:          s.genID.Generate(),
		ActorID:     req.ActorID,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   req.SubjectID,
		Description: strings.TrimSpace(req.Description),
		Properties:  datatypes.JSONMap(properties),
		CreatedAt:   s.clock.Now(),
	}
	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := strings.TrimSpace(req.UserAgent); ua != "" {
		entry.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write activity log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListEntryRequest) (domain.ListEntryResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return domain.ListEntryResponse{}, domain.ErrInvalidTimeRange
	}

	var subjectID *snowflake.ID
	if raw := strings.TrimSpace(req.SubjectID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListEntryResponse{}, domain.ErrInvalidSubject
		}
		subjectID = &parsed
	}

	var cursor *domain.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		id, createdAt, err := pagination.DecodeIDTimeCursor(token)
		if err != nil {
			return domain.ListEntryResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Action:      req.Action,
		SubjectType: req.SubjectType,
		SubjectID:   subjectID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Cursor:      cursor,
		Limit:       pageSize,
	})
	if err != nil {
		return domain.ListEntryResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Entry) string {
		return pagination.EncodeIDTimeCursor(item.ID, item.CreatedAt)
	})

	return domain.ListEntryResponse{
		PageInfo: *pageInfo,
		Entries:  items,
	}, nil
}

func (s *Service) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := s.clock.Now().AddDate(0, 0, -retentionDays)

	deleted, err := s.repo.DeleteOlderThan(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("purged activity logs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}
