package goal

import (
	"context"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// UserSource lists the users whose goals the scheduler should refresh.
// Satisfied by *PgStore.
type UserSource interface {
	ActiveUserIDs(ctx context.Context) ([]string, error)
}

// Scheduler periodically runs the engine for every user with active goals.
// Users recalculate in parallel; each user's goals are handled sequentially
// inside the engine.
type Scheduler struct {
	engine *Engine
	users  UserSource
	cron   *cron.Cron
}

func NewScheduler(engine *Engine, users UserSource) *Scheduler {
	return &Scheduler{
		engine: engine,
		users:  users,
		cron:   cron.New(),
	}
}

func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce recalculates all users immediately. Exposed so a pass can also be
// triggered outside the cron schedule.
func (s *Scheduler) RunOnce() {
	ctx := context.Background()

	userIDs, err := s.users.ActiveUserIDs(ctx)
	if err != nil {
		log.Printf("goal scheduler: listing users failed: %v", err)
		return
	}

	var wg sync.WaitGroup
	for _, userID := range userIDs {
		userID := userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.engine.Recalculate(ctx, userID)
			if err != nil {
				log.Printf("goal scheduler: user %s recalculation failed: %v", userID, err)
				return
			}
			if len(res.Failed) > 0 {
				log.Printf("goal scheduler: user %s updated %d goals, %d failed", userID, res.Updated, len(res.Failed))
			}
		}()
	}
	wg.Wait()
}
