package chat

import "sync"

// channelLocks serializes pipeline runs per chat channel, so two quick
// messages from the same customer cannot interleave their quotation state.
// Different channels proceed in parallel.
type channelLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newChannelLocks() *channelLocks {
	return &channelLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the channel and returns its unlock function. Lock entries
// are kept for the process lifetime; the active customer set is small.
func (l *channelLocks) acquire(channelID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[channelID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
