package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

// ParseResult is delivered once per accepted submission.
type ParseResult struct {
	Generation uint64
	Hands      []*parser.Hand
}

// ParseWorker parses pasted or loaded text off the caller's goroutine. Only
// the newest submission is delivered: submitting again supersedes any parse
// still in flight, and the superseded channel is closed without a value.
type ParseWorker struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	parse func(string) []*parser.Hand
}

func NewParseWorker() *ParseWorker {
	return &ParseWorker{parse: parser.Parse}
}

// Submit starts parsing text and returns a channel that receives the result,
// or is closed empty if a newer Submit or ctx cancellation wins first.
func (w *ParseWorker) Submit(ctx context.Context, text string) <-chan ParseResult {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	parse := w.parse
	w.mu.Unlock()

	out := make(chan ParseResult, 1)
	go func() {
		defer close(out)
		defer cancel()

		hands := parse(text)

		w.mu.Lock()
		current := w.gen == gen
		w.mu.Unlock()
		if !current || ctx.Err() != nil {
			slog.Debug("dropping superseded parse", "generation", gen)
			return
		}
		out <- ParseResult{Generation: gen, Hands: hands}
	}()
	return out
}

// Stop cancels any parse in flight.
func (w *ParseWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}
