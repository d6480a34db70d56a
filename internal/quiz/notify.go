package quiz

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Notifiers fans events out to every registered transport. Transports ignore
// users they do not serve.
type Notifiers struct {
	mu   sync.RWMutex
	list []Notifier
}

var _ Notifier = (*Notifiers)(nil)

// Add registers n.
func (m *Notifiers) Add(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, n)
}

// Notify delivers ev to all transports and joins their errors.
func (m *Notifiers) Notify(ctx context.Context, userID uuid.UUID, ev Event) error {
	m.mu.RLock()
	list := m.list
	m.mu.RUnlock()

	var errs []error
	for _, n := range list {
		if err := n.Notify(ctx, userID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
