package store

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/coach/internal/mailer"
	"github.com/eleven-am/coach/internal/media"
)

// newTestStore wires a Store onto a sqlmock connection with an in-memory
// media store and a recording mailer.
func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock, *media.MemoryStore, *recordingMailer) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mem := media.NewMemoryStore()
	mail := &recordingMailer{}
	s := New(sqlx.NewDb(db, "postgres"), WithMedia(mem), WithMailer(mail))
	return s, mock, mem, mail
}

// recordingMailer captures dispatched messages for assertions.
type recordingMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	done     chan struct{}
}

func (m *recordingMailer) expect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = make(chan struct{})
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	return nil
}

// wait blocks until the next expected message arrives. expect must have been
// called before the operation that sends.
func (m *recordingMailer) wait(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (m *recordingMailer) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.messages))
	copy(out, m.messages)
	return out
}
