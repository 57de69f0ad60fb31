package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signmeup/internal/model"
)

type recordingMailer struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	block chan struct{}
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, discardLogger())

	for i := 0; i < 5; i++ {
		assert.True(t, d.Enqueue(Message{To: "a@example.com", Subject: "hi"}))
	}
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 5, mailer.count())

	assert.False(t, d.Enqueue(Message{To: "late@example.com"}))
	require.NoError(t, d.Close(context.Background()), "second close is a no-op")
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("provider down")}
	d := NewDispatcher(mailer, discardLogger())

	assert.True(t, d.Enqueue(Message{To: "a@example.com"}))
	assert.True(t, d.Enqueue(Message{To: "b@example.com"}))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, mailer.count(), "worker keeps going after a failure")
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	mailer := &recordingMailer{block: make(chan struct{})}
	d := NewDispatcher(mailer, discardLogger(), WithQueueSize(1))

	// The worker takes the first message and blocks in Send; the second fills the queue.
	require.True(t, d.Enqueue(Message{To: "1@example.com"}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.True(t, d.Enqueue(Message{To: "2@example.com"}))

	start := time.Now()
	assert.False(t, d.Enqueue(Message{To: "3@example.com"}))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(mailer.block)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, mailer.count())
}

func TestDispatcher_CloseHonoursDeadline(t *testing.T) {
	mailer := &recordingMailer{block: make(chan struct{})}
	d := NewDispatcher(mailer, discardLogger(), WithSendTimeout(time.Minute))
	require.True(t, d.Enqueue(Message{To: "stuck@example.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(mailer.block)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_SendTimeout(t *testing.T) {
	mailer := &recordingMailer{block: make(chan struct{})}
	d := NewDispatcher(mailer, discardLogger(), WithSendTimeout(10*time.Millisecond))
	require.True(t, d.Enqueue(Message{To: "slow@example.com"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, 0, mailer.count())
}

func TestTemplates(t *testing.T) {
	event := &model.Event{
		Title:       "Beach <Cleanup>",
		Description: "Bring gloves",
		Location:    "Pier 3",
		Date:        time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC),
	}

	welcome, err := WelcomeEmail("Ada", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", welcome.To)
	assert.Contains(t, welcome.HTML, "Welcome to SignMeUp, Ada!")

	tests := []struct {
		name    string
		build   func(string, string, *model.Event) (Message, error)
		heading string
		subject string
	}{
		{"signup", SignupEmail, "You're Signed Up!", "You're signed up: Beach <Cleanup>"},
		{"cancel", CancelEmail, "Signup Canceled", "Signup canceled: Beach <Cleanup>"},
		{"update", EventUpdatedEmail, "Event Updated", "Event updated: Beach <Cleanup>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.build("Ada", "ada@example.com", event)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Contains(t, msg.HTML, tt.heading)
			assert.Contains(t, msg.HTML, "Beach &lt;Cleanup&gt;")
			assert.NotContains(t, msg.HTML, "<Cleanup>")
			assert.Contains(t, msg.HTML, "Pier 3")
			assert.Contains(t, msg.HTML, "Sat, Jun 1 2030 at 09:30 UTC")
		})
	}
}

func TestLogMailer(t *testing.T) {
	var buf strings.Builder
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "Hello"}))
	assert.Contains(t, buf.String(), "a@example.com")
	assert.Contains(t, buf.String(), "Hello")
}
