package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// invitationGracePeriod keeps expired invitations around so late acceptance attempts still report Expired
	invitationGracePeriod = 30 * 24 * time.Hour
	housekeepingTimeout   = time.Minute
)

// InvitationCleaner is the interface that wraps removal of expired invitations
type InvitationCleaner interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionCleaner is the interface that wraps removal of abandoned sessions
type SessionCleaner interface {
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type housekeepingService struct {
	invitations      InvitationCleaner
	sessions         SessionCleaner
	clock            Clock
	sessionRetention time.Duration
	cron             *cron.Cron
	logger           *zap.Logger
}

// NewHousekeepingService creates a periodic cleanup job
//
// "sessionRetention" is how long an unfinished session is kept after it started.
func NewHousekeepingService(invitations InvitationCleaner, sessions SessionCleaner, clock Clock, sessionRetention time.Duration, logger *zap.Logger) *housekeepingService {
	loc := clock.Location
	if loc == nil {
		loc = time.UTC
	}
	return &housekeepingService{
		invitations:      invitations,
		sessions:         sessions,
		clock:            clock,
		sessionRetention: sessionRetention,
		cron:             cron.New(cron.WithLocation(loc)),
		logger:           logger,
	}
}

// Start schedules the cleanup with a standard cron expression or descriptor such as "@daily"
func (s *housekeepingService) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), housekeepingTimeout)
		defer cancel()
		if err := s.Run(ctx); err != nil {
			s.logger.Error("housekeeping failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid housekeeping schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("housekeeping scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop stops the scheduler; the returned context is done once a running cleanup finishes
func (s *housekeepingService) Stop() context.Context {
	return s.cron.Stop()
}

// Run performs one cleanup pass
//
// Invitation expiry is still checked at acceptance time, so a skipped pass only leaves stale rows behind.
func (s *housekeepingService) Run(ctx context.Context) error {
	now := s.clock.Now().UTC()

	invitations, err := s.invitations.DeleteExpired(ctx, now.Add(-invitationGracePeriod))
	if err != nil {
		return err
	}

	sessions, err := s.sessions.DeleteStale(ctx, now.Add(-s.sessionRetention))
	if err != nil {
		return err
	}

	s.logger.Info("housekeeping finished",
		zap.Int64("invitationsDeleted", invitations),
		zap.Int64("sessionsDeleted", sessions),
	)
	return nil
}
