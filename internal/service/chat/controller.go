package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/maxai/internal/model/chat"
)

// WelcomeID identifies the seeded assistant greeting.
const WelcomeID = "welcome"

// ControllerFaultReply replaces the reply when the responder itself blows up.
const ControllerFaultReply = "**Error:** Failed to connect to MaxAI services."

const subscriberBuffer = 16

// Responder produces the assistant reply for one prompt.
type Responder interface {
	Respond(ctx context.Context, prompt string) string
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, prompt string) string

func (f ResponderFunc) Respond(ctx context.Context, prompt string) string { return f(ctx, prompt) }

// Option customises a Controller.
type Option func(*Controller)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDs overrides message ID generation.
func WithIDs(next func() string) Option {
	return func(c *Controller) { c.newID = next }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller owns one conversation: the transcript, the busy flag and the input draft.
// At most one inference call is in flight; submissions made meanwhile are dropped.
type Controller struct {
	responder Responder
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger

	mu          sync.Mutex
	messages    []chat.Message
	busy        bool
	draft       string
	subscribers map[int]chan chat.State
	nextSubID   int
}

// NewController seeds the transcript with the welcome message.
func NewController(responder Responder, welcome string, opts ...Option) *Controller {
	c := &Controller{
		responder:   responder,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		log:         zerolog.Nop(),
		messages:    make([]chat.Message, 0, 16),
		subscribers: make(map[int]chan chat.State),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.messages = append(c.messages, chat.Message{
		ID:        WelcomeID,
		Role:      chat.RoleAssistant,
		Text:      welcome,
		CreatedAt: c.now(),
	})
	return c
}

// Submit runs one full request/response cycle and reports whether the input was
// accepted. It blocks until the reply has been appended.
func (c *Controller) Submit(ctx context.Context, raw string) bool {
	prompt, ok := c.accept(raw)
	if !ok {
		return false
	}
	c.complete(ctx, prompt)
	return true
}

// Dispatch accepts like Submit but completes the cycle on its own goroutine. The cycle
// is detached from ctx cancellation: once accepted it always settles.
func (c *Controller) Dispatch(ctx context.Context, raw string) bool {
	prompt, ok := c.accept(raw)
	if !ok {
		return false
	}
	go c.complete(context.WithoutCancel(ctx), prompt)
	return true
}

// accept validates raw and, under the lock, appends the user message, clears the draft
// and raises busy.
func (c *Controller) accept(raw string) (string, bool) {
	prompt := strings.TrimSpace(raw)
	if prompt == "" {
		return "", false
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		c.log.Debug().Msg("submission dropped while busy")
		return "", false
	}
	c.messages = append(c.messages, chat.Message{
		ID:        c.newID(),
		Role:      chat.RoleUser,
		Text:      prompt,
		CreatedAt: c.now(),
	})
	c.draft = ""
	c.busy = true
	c.publishLocked()
	c.mu.Unlock()

	return prompt, true
}

func (c *Controller) complete(ctx context.Context, prompt string) {
	reply := c.respond(ctx, prompt)

	c.mu.Lock()
	c.messages = append(c.messages, chat.Message{
		ID:        c.newID(),
		Role:      chat.RoleAssistant,
		Text:      reply,
		CreatedAt: c.now(),
	})
	c.busy = false
	c.publishLocked()
	c.mu.Unlock()
}

func (c *Controller) respond(ctx context.Context, prompt string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("responder failed")
			reply = ControllerFaultReply
		}
	}()
	return c.responder.Respond(ctx, prompt)
}

// SetDraft replaces the input buffer.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == text {
		return
	}
	c.draft = text
	c.publishLocked()
}

// Draft returns the input buffer.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Busy reports whether an inference call is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// CanSubmit reports whether submitting the current draft would be accepted.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.busy && strings.TrimSpace(c.draft) != ""
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMessagesLocked()
}

// Snapshot returns the full conversation state.
func (c *Controller) Snapshot() chat.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers for state changes. Every notification is a full snapshot; a
// subscriber that falls behind skips intermediate snapshots rather than blocking the
// controller. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan chat.State, func()) {
	ch := make(chan chat.State, subscriberBuffer)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) publishLocked() {
	if len(c.subscribers) == 0 {
		return
	}
	state := c.snapshotLocked()
	for id, ch := range c.subscribers {
		select {
		case ch <- state:
		default:
			// Drop the oldest pending snapshot so the newest one always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
				c.log.Debug().Int("subscriber", id).Msg("subscriber lagging, snapshot dropped")
			}
		}
	}
}

func (c *Controller) snapshotLocked() chat.State {
	return chat.State{
		Messages: c.copyMessagesLocked(),
		Busy:     c.busy,
		Draft:    c.draft,
	}
}

func (c *Controller) copyMessagesLocked() []chat.Message {
	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}
