package devserve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tychoish/fun/erc"
	"github.com/tychoish/fun/ers"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/message"
	"github.com/tychoish/grip/send"
)

// LoggingCache holds the extra senders (usually log files) that receive
// a copy of a process's output, keyed by process name. The cache is filled
// and cleared by whoever opened the senders; the supervisor only reads it.
type LoggingCache interface {
	Put(name string, sender send.Sender) error
	Get(name string) send.Sender
	// Clear closes and removes every sender.
	Clear(ctx context.Context) error
	Len() int
}

// NewLoggingCache produces a thread-safe LoggingCache.
func NewLoggingCache() LoggingCache {
	return &loggingCacheImpl{cache: map[string]send.Sender{}}
}

type loggingCacheImpl struct {
	cache map[string]send.Sender
	mu    sync.RWMutex
}

func (c *loggingCacheImpl) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}

func (c *loggingCacheImpl) Get(name string) send.Sender {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cache[name]
}

func (c *loggingCacheImpl) Put(name string, sender send.Sender) error {
	if sender == nil {
		return errors.New("cannot cache nil sender")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache[name]; ok {
		return fmt.Errorf("cannot cache with existing sender for '%s'", name)
	}

	c.cache[name] = sender
	return nil
}

func (c *loggingCacheImpl) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	catcher := &erc.Collector{}
	for _, sender := range c.cache {
		catcher.Add(sender.Close())
	}
	c.cache = map[string]send.Sender{}

	return ers.Wrap(catcher.Resolve(), "problem clearing logging cache")
}

// senderSink adapts a grip sender to a LineSink.
type senderSink struct {
	sender send.Sender
}

func (s senderSink) Line(tag, text string) {
	m := message.MakeString(fmt.Sprintf("[%s] %s", tag, text))
	m.SetPriority(level.Info)
	s.sender.Send(m)
}
