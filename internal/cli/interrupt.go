package cli

import "sync"

// stopper is a run that can finish gracefully.
type stopper interface {
	Stop()
}

var (
	activeMu  sync.Mutex
	activeRun stopper
)

func setActiveRun(s stopper) {
	activeMu.Lock()
	activeRun = s
	activeMu.Unlock()
}

func clearActiveRun(s stopper) {
	activeMu.Lock()
	if activeRun == s {
		activeRun = nil
	}
	activeMu.Unlock()
}

// Interrupt handles one interrupt signal. When a scrape is running it is
// asked to stop after the business in progress and Interrupt returns true.
// Otherwise it returns false and the caller should cancel the command.
func Interrupt() bool {
	activeMu.Lock()
	s := activeRun
	activeRun = nil
	activeMu.Unlock()

	if s == nil {
		return false
	}
	s.Stop()
	return true
}
