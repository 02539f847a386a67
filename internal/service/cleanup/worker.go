package cleanup

import (
	"log"
	"time"
)

type SessionCleaner interface {
	CleanupOldSessions(olderThanDays int) (int64, error)
}

// Worker prunes inactive session ledger rows in the background. The ledger
// is audit state, so pruning only affects how far back session history goes.
type Worker struct {
	Sessions   SessionCleaner
	Interval   time.Duration
	DaysToKeep int
}

func NewWorker(sessions SessionCleaner) *Worker {
	return &Worker{
		Sessions:   sessions,
		Interval:   1 * time.Hour,
		DaysToKeep: 30,
	}
}

// Start initiates the background ticker
func (w *Worker) Start() {
	go w.runCleanup()

	ticker := time.NewTicker(w.Interval)
	go func() {
		for range ticker.C {
			w.runCleanup()
		}
	}()
	log.Println("[CLEANUP] Background worker started")
}

func (w *Worker) runCleanup() {
	deletedCount, err := w.Sessions.CleanupOldSessions(w.DaysToKeep)
	if err != nil {
		log.Printf("[CLEANUP] Error cleaning up old sessions: %v", err)
		return
	}
	if deletedCount > 0 {
		log.Printf("[CLEANUP] Removed %d inactive sessions from ledger", deletedCount)
	}
}
