package expansion

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
)

type reply struct {
	out string
	err error
}

// scriptedGenerator returns the scripted replies in order, repeating the last one.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []reply
	prompts []domain.Prompt
}

func (g *scriptedGenerator) Generate(_ context.Context, p domain.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	i := min(len(g.prompts)-1, len(g.replies)-1)
	if i < 0 {
		return "", domain.ErrAIProviderError
	}
	return g.replies[i].out, g.replies[i].err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// recordingSleeper records requested waits without sleeping.
type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

func newTestAdapter(t *testing.T, replies ...reply) (*Adapter, *scriptedGenerator, *recordingSleeper) {
	t.Helper()
	gen := &scriptedGenerator{replies: replies}
	sl := &recordingSleeper{}
	a := New(gen, zap.NewNop(), WithRetrier(Retrier{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		Sleep:     sl.sleep,
	}))
	return a, gen, sl
}
