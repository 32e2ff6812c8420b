package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"FupanBot/internal/broadcast"
	"FupanBot/internal/calendar"
	"FupanBot/internal/notifier"
	"FupanBot/internal/recorder"
	"FupanBot/internal/store"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the daily review broadcast job.
type Scheduler struct {
	Cron     *cron.Cron
	Builder  *broadcast.Builder
	Registry *store.Registry
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Cal      *calendar.Adapter
	Loc      *time.Location
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, b *broadcast.Builder, reg *store.Registry, tn *notifier.TelegramNotifier, rec recorder.Recorder, cal *calendar.Adapter, loc *time.Location) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Builder:  b,
		Registry: reg,
		Notifier: tn,
		Recorder: rec,
		Cal:      cal,
		Loc:      loc,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily broadcast task.
func (s *Scheduler) RegisterAll(broadcastCron string) error {
	if _, err := s.Cron.AddFunc(broadcastCron, s.dailyBroadcast); err != nil {
		return fmt.Errorf("register daily broadcast: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunBroadcastNow executes the broadcast immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunBroadcastNow() {
	s.dailyBroadcast()
}

// dailyBroadcast sends each registered group its review summary for the most
// recently completed session. Failures are logged per group, never propagated.
func (s *Scheduler) dailyBroadcast() {
	now := time.Now().In(s.Loc)
	if !s.Cal.IsSession(now) {
		log.Println("[INFO] not a trading day, skipping review broadcast")
		return
	}
	prev, ok := s.Cal.PreviousSession(now)
	if !ok {
		log.Println("[ERROR] broadcast: cannot resolve previous session")
		return
	}
	reviewDate := calendar.FormatDate(prev)
	display := prev.Format("2006年01月02日")

	sessions := s.Registry.Snapshot()
	if len(sessions) == 0 {
		log.Println("[INFO] no registered groups, skipping review broadcast")
		return
	}

	for groupID, target := range sessions {
		content, participants, usedLLM := s.Builder.GroupSummary(s.Ctx, groupID, reviewDate, display)
		msg := fmt.Sprintf("📈 每日复盘播报 (%s)\n\n%s", display, content)
		if err := s.Notifier.SendWithRetry(s.Ctx, target, msg, 3); err != nil {
			log.Printf("[ERROR] broadcast to group %s: %v", groupID, err)
			continue
		}
		log.Printf("[INFO] review broadcast sent to group %s (%d participants)", groupID, participants)

		if err := s.Recorder.RecordBroadcast(&recorder.BroadcastEvent{
			GroupID:      groupID,
			ReviewDate:   reviewDate,
			Participants: participants,
			UsedLLM:      usedLLM,
		}); err != nil {
			log.Printf("[ERROR] record broadcast: %v", err)
		}
	}
}
