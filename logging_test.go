package devserve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tychoish/fun/assert/check"
	"github.com/tychoish/grip/send"
)

type closeRecordingSender struct {
	send.Sender
	closed   bool
	closeErr error
}

func (s *closeRecordingSender) Close() error {
	s.closed = true
	return s.closeErr
}

func TestLoggingCache(t *testing.T) {
	for _, test := range []struct {
		Name string
		Case func(*testing.T, LoggingCache)
	}{
		{
			Name: "Fixture",
			Case: func(t *testing.T, cache LoggingCache) {
				check.Equal(t, 0, cache.Len())
			},
		},
		{
			Name: "SafeOps",
			Case: func(t *testing.T, cache LoggingCache) {
				check.Zero(t, cache.Get("whatever"))
				check.Error(t, cache.Put("foo", nil))
				check.Equal(t, 0, cache.Len())
			},
		},
		{
			Name: "PutGet",
			Case: func(t *testing.T, cache LoggingCache) {
				sender := send.MakeInternalLogger()
				check.NotError(t, cache.Put("api", sender))
				check.Equal(t, 1, cache.Len())
				require.NotNil(t, cache.Get("api"))
				check.True(t, cache.Get("api") == send.Sender(sender))
			},
		},
		{
			Name: "PutDuplicate",
			Case: func(t *testing.T, cache LoggingCache) {
				check.NotError(t, cache.Put("api", send.MakeInternalLogger()))
				check.Error(t, cache.Put("api", send.MakeInternalLogger()))
				check.Equal(t, 1, cache.Len())
			},
		},
		{
			Name: "Clear",
			Case: func(t *testing.T, cache LoggingCache) {
				ctx := context.TODO()
				sender0 := &closeRecordingSender{Sender: send.MakeInternalLogger()}
				sender1 := &closeRecordingSender{Sender: send.MakeInternalLogger()}

				require.NoError(t, cache.Put("id0", sender0))
				require.NoError(t, cache.Put("id1", sender1))
				require.NoError(t, cache.Clear(ctx))
				require.Nil(t, cache.Get("id0"))
				require.Nil(t, cache.Get("id1"))
				require.True(t, sender0.closed)
				require.True(t, sender1.closed)

				sender0.closeErr = errors.New("closed")
				require.NoError(t, cache.Put("id0", sender0))
				require.NoError(t, cache.Put("id1", sender1))
				check.Error(t, cache.Clear(ctx))
				check.Zero(t, cache.Get("id0"))
				check.Zero(t, cache.Get("id1"))
				check.Equal(t, 0, cache.Len())
			},
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			require.NotPanics(t, func() {
				test.Case(t, NewLoggingCache())
			})
		})
	}
}

func TestSenderSink(t *testing.T) {
	sender := send.MakeInternalLogger()
	sink := senderSink{sender: sender}
	sink.Line("web", "ready in 300ms")
	sink.Line("web", "")

	require.Equal(t, 2, sender.Len())
	check.Equal(t, "[web] ready in 300ms", sender.GetMessage().Message.String())
	check.Equal(t, "[web] ", sender.GetMessage().Message.String())
}
