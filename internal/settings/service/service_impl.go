package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/alprail/membership/internal/clock"
	"github.com/alprail/membership/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// GetString resolves a setting, falling back to its default. Lookup errors
// are logged and treated as "use the default" so notification gating never
// breaks billing work.
func (s *Service) GetString(ctx context.Context, key string) string {
	setting, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		s.log.Warn("failed to read setting", zap.String("key", key), zap.Error(err))
		return domain.Defaults[key]
	}
	if setting == nil {
		return domain.Defaults[key]
	}
	return setting.Value
}

func (s *Service) GetBool(ctx context.Context, key string) bool {
	return strings.EqualFold(strings.TrimSpace(s.GetString(ctx, key)), "true")
}

func (s *Service) GetInt(ctx context.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(s.GetString(ctx, key)))
	if err != nil {
		fallback, _ := strconv.Atoi(domain.Defaults[key])
		return fallback
	}
	return value
}

func (s *Service) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if _, ok := domain.Defaults[key]; !ok {
		return domain.ErrUnknownKey
	}

	return s.repo.Upsert(ctx, s.db, &domain.Setting{
		Key:       key,
		Value:     strings.TrimSpace(value),
		UpdatedAt: s.clock.Now(),
	})
}

func (s *Service) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(domain.Defaults))
	for key, value := range domain.Defaults {
		out[key] = value
	}

	settings, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}
	return out, nil
}
