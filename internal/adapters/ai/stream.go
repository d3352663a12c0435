package ai

import (
	"context"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"halomind/pkg/errors"
)

// StreamState tracks a stream through its lifecycle
type StreamState int32

const (
	StateIdle StreamState = iota
	StateConnected
	StateStreaming
	StateCompleted
	StateErrored
	StateCanceled
)

func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func (s StreamState) terminal() bool {
	return s >= StateCompleted
}

// StreamChunk is one text fragment in provider emission order
type StreamChunk struct {
	Text string `json:"text"`
}

// pullFunc yields the next text delta; ok=false ends the stream
type pullFunc func() (text string, ok bool, err error)

// Stream is a single-use lazy sequence of text chunks from either provider.
// Errors surface at the pull that hits them; cancellation ends the sequence
// quietly.
type Stream struct {
	provider ProviderName
	ctx      context.Context
	cancel   context.CancelFunc
	pull     pullFunc
	release  func()

	state       atomic.Int32
	consumed    atomic.Bool
	releaseOnce sync.Once

	onChunk func(ProviderName)
}

func newStream(ctx context.Context, cancel context.CancelFunc, provider ProviderName, pull pullFunc, release func()) *Stream {
	s := &Stream{
		provider: provider,
		ctx:      ctx,
		cancel:   cancel,
		pull:     pull,
		release:  release,
	}
	s.state.Store(int32(StateConnected))
	return s
}

// OpenSeqStream adapts a text sequence into a connected Stream. open receives
// the stream's own context so Close reaches the transport. The first element
// is pulled eagerly so a failing connection is reported here rather than to
// the consumer.
func OpenSeqStream(ctx context.Context, provider ProviderName, open func(ctx context.Context) iter.Seq2[string, error]) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	next, stop := iter.Pull2(open(ctx))

	first, err, ok := next()
	if err != nil {
		stop()
		cancel()
		return nil, Classify(provider, err)
	}

	pending := ok
	pull := func() (string, bool, error) {
		if pending {
			pending = false
			return first, true, nil
		}
		text, err, ok := next()
		if err != nil {
			return "", false, Classify(provider, err)
		}
		return text, ok, nil
	}

	return newStream(ctx, cancel, provider, pull, stop), nil
}

// OpenPullStream builds a connected Stream from a pull function, used by
// transports that decode frames themselves. release runs once the stream ends.
func OpenPullStream(ctx context.Context, cancel context.CancelFunc, provider ProviderName, next func() (string, bool, error), release func()) *Stream {
	return newStream(ctx, cancel, provider, next, release)
}

// Provider reports which provider produced the stream
func (s *Stream) Provider() ProviderName {
	return s.provider
}

// State returns the current lifecycle state
func (s *Stream) State() StreamState {
	return StreamState(s.state.Load())
}

// Chunks returns the chunk sequence. It may be ranged over once; stopping
// the range early closes the stream.
func (s *Stream) Chunks() iter.Seq2[StreamChunk, error] {
	return func(yield func(StreamChunk, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			if s.State() != StateCanceled {
				yield(StreamChunk{}, errors.ErrStreamClosed)
			}
			return
		}
		defer s.shutdown()

		for {
			text, ok, err := s.pull()
			if s.ctx.Err() != nil {
				s.finish(StateCanceled)
				return
			}
			if err != nil {
				s.finish(StateErrored)
				yield(StreamChunk{}, err)
				return
			}
			if !ok {
				s.finish(StateCompleted)
				return
			}

			s.state.CompareAndSwap(int32(StateConnected), int32(StateStreaming))
			if text == "" {
				continue
			}
			if s.onChunk != nil {
				s.onChunk(s.provider)
			}
			if !yield(StreamChunk{Text: text}, nil) {
				s.finish(StateCanceled)
				return
			}
		}
	}
}

// Collect drains the stream into a single string
func (s *Stream) Collect() (string, error) {
	var b strings.Builder
	for chunk, err := range s.Chunks() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk.Text)
	}
	return b.String(), nil
}

// Close cancels the underlying transport and stops further delivery. It is
// safe to call from another goroutine while the stream is being ranged over.
func (s *Stream) Close() {
	s.cancel()
	s.finish(StateCanceled)
	if s.consumed.CompareAndSwap(false, true) {
		s.shutdown()
	}
}

// shutdown releases the transport; only the goroutine owning the pull calls it
func (s *Stream) shutdown() {
	s.releaseOnce.Do(func() {
		s.cancel()
		if s.release != nil {
			s.release()
		}
	})
}

// finish records a terminal state unless one was already recorded
func (s *Stream) finish(state StreamState) {
	for {
		cur := s.state.Load()
		if StreamState(cur).terminal() {
			return
		}
		if s.state.CompareAndSwap(cur, int32(state)) {
			return
		}
	}
}
