package service

import (
	"go.uber.org/zap"

	"github.com/bryan-besnyi/next-doorcard-sub000/config"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/jwt"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/redis"
)

// Service aggregates every business service.
type Service struct {
	Auth     AuthService
	Term     TermService
	Doorcard DoorcardService
	Draft    DraftService
	ICSFeed  ICSFeedService
	Export   ExportService
}

// NewService creates the Service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Term:     NewTermService(repo, logger),
		Doorcard: NewDoorcardService(repo, logger),
		Draft:    NewDraftService(repo, logger),
		ICSFeed:  NewICSFeedService(repo, logger),
		Export:   NewExportService(repo, logger),
	}
}
