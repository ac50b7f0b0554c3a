package websocket

import "sync"

// connections tracks the open clients of every participant. A participant may be connected
// from several devices at once.
type connections struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func newConnections() *connections {
	return &connections{
		clients: make(map[string]map[*client]struct{}),
	}
}

func (that *connections) add(participant string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.clients[participant] == nil {
		that.clients[participant] = make(map[*client]struct{})
	}
	that.clients[participant][c] = struct{}{}
}

// remove reports whether c was the last connection of participant.
func (that *connections) remove(participant string, c *client) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	clients, ok := that.clients[participant]
	if !ok {
		return false
	}

	delete(clients, c)
	if len(clients) > 0 {
		return false
	}

	delete(that.clients, participant)
	return true
}

func (that *connections) count(participant string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients[participant])
}

// of returns a copy so that callers can send without holding the lock.
func (that *connections) of(participants ...string) []*client {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var result []*client
	for _, p := range participants {
		for c := range that.clients[p] {
			result = append(result, c)
		}
	}

	return result
}
