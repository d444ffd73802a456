package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/events"
	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/prompt"
	"ai-docsearch-be/pkg/rag/router"
	"ai-docsearch-be/pkg/rag/state"
	"ai-docsearch-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers analysis prompts with analysisReply, refine prompts
// with refineReply and chats from chatReplies (the last one repeats).
type scriptedLLM struct {
	mu            sync.Mutex
	analysisReply string
	refineReply   string
	chatReplies   []string
	chatErr       error
	chats         int
	generates     int
	onChat        func()
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onChat != nil {
		s.onChat()
	}
	if s.chatErr != nil {
		return "", s.chatErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	i := s.chats
	if i >= len(s.chatReplies) {
		i = len(s.chatReplies) - 1
	}
	s.chats++
	return s.chatReplies[i], nil
}

func (s *scriptedLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generates++
	if strings.Contains(p, "answer ONLY with") {
		return s.analysisReply, nil
	}
	return s.refineReply, nil
}

type fakeIndex struct {
	mu       sync.Mutex
	passages []store.Passage
	queries  []string
}

func (f *fakeIndex) SimilaritySearch(ctx context.Context, query string, k int) ([]store.Passage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if len(f.passages) > k {
		return f.passages[:k], nil
	}
	return f.passages, nil
}

type fakeDocs map[string]store.Document

func (f fakeDocs) FetchBySource(ctx context.Context, source string) (*store.Document, error) {
	doc, ok := f[source]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return &doc, nil
}

type memorySessions struct {
	mu    sync.Mutex
	data  map[string]state.State
	saves int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{data: make(map[string]state.State)}
}

func (m *memorySessions) Load(ctx context.Context, id string) (*state.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.data[id]
	if !ok {
		return nil, false, nil
	}
	clone := st.Clone()
	return &clone, true, nil
}

func (m *memorySessions) Save(ctx context.Context, id string, st state.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = st.Clone()
	m.saves++
	return nil
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

type countingObserver struct {
	mu     sync.Mutex
	stages map[router.Stage]int
	turns  int
	failed int
}

func (c *countingObserver) ObserveStage(stage router.Stage, _ time.Duration, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stages == nil {
		c.stages = make(map[router.Stage]int)
	}
	c.stages[stage]++
}

func (c *countingObserver) ObserveTurn(_ int, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns++
	if err != nil {
		c.failed++
	}
}

func valenciaIndex() *fakeIndex {
	return &fakeIndex{passages: []store.Passage{
		{Content: "Free walking tour at 10am", Metadata: store.Metadata{"source": "valencia-tours.md"}},
		{Content: "Bike tour along the Turia", Metadata: store.Metadata{"source": "valencia-tours.md"}},
	}}
}

func valenciaDocs() fakeDocs {
	return fakeDocs{"valencia-tours.md": {
		Content:  "Valencia tours: free walking tour at 10am, bike tour along the Turia.",
		Metadata: store.Metadata{"source": "valencia-tours.md"},
	}}
}

func newExecutor(provider llm.LLMProvider, index store.SemanticIndex, docs store.DocumentStore, opts ...Option) *PipelineExecutor {
	return NewPipelineExecutor(provider, index, docs, logger.NewNopLogger(), opts...)
}

func TestExecute_ScenarioA_DirectRetrieval(t *testing.T) {
	provider := &scriptedLLM{chatReplies: []string{"- Free walking tour\n- Bike tour (valencia-tours.md)"}}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs())

	res, err := p.Execute(context.Background(), Request{
		Question: "What tours are available in Valencia?",
		Config:   rag.DefaultConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, []router.Stage{router.Analyze, router.Retrieve, router.Generate, router.End}, res.Path)
	assert.Equal(t, 1, res.RetrievalCount)
	assert.Equal(t, 1, res.Iterations)
	require.Len(t, res.Documents, 1)
	assert.True(t, strings.HasPrefix(res.Documents[0], "[Document 1] (Source: valencia-tours.md)"))
	assert.Equal(t, []string{"valencia-tours.md"}, res.Sources)
	assert.Len(t, res.State.ConversationHistory, 2)
	assert.Zero(t, provider.generates)
}

func TestExecute_ScenarioB_Refinement(t *testing.T) {
	provider := &scriptedLLM{
		analysisReply: "no",
		refineReply:   "  guided tours available in Valencia  ",
		chatReplies:   []string{"Walking and bike tours."},
	}
	index := valenciaIndex()
	cfg := rag.DefaultConfig()
	cfg.EnableQueryRefinement = true

	res, err := newExecutor(provider, index, valenciaDocs()).Execute(context.Background(), Request{
		Question: "tours?",
		Config:   cfg,
	})
	require.NoError(t, err)

	assert.Equal(t, []router.Stage{router.Analyze, router.Refine, router.Retrieve, router.Generate, router.End}, res.Path)
	assert.Equal(t, "guided tours available in Valencia", res.State.RefinedQuery)
	assert.NotEqual(t, res.State.Question, res.State.RefinedQuery)
	assert.Equal(t, []string{"guided tours available in Valencia"}, index.queries)
	assert.Equal(t, 1, res.RetrievalCount)
}

func TestExecute_ScenarioC_ZeroHits(t *testing.T) {
	provider := &scriptedLLM{chatReplies: []string{prompt.RefusalPhrase}}
	cfg := rag.DefaultConfig()
	cfg.MaxIterations = 1

	res, err := newExecutor(provider, &fakeIndex{}, fakeDocs{}).Execute(context.Background(), Request{
		Question: "What is the refund policy for Madrid?",
		Config:   cfg,
	})
	require.NoError(t, err)

	assert.NotNil(t, res.Documents)
	assert.Empty(t, res.Documents)
	assert.Equal(t, 1, res.RetrievalCount)
	assert.Equal(t, prompt.RefusalPhrase, res.Answer)
	assert.True(t, res.Insufficient)
	assert.Equal(t, router.End, res.Path[len(res.Path)-1])
}

func TestExecute_ScenarioD_LoopsOnceThenStops(t *testing.T) {
	provider := &scriptedLLM{chatReplies: []string{prompt.RefusalPhrase, "I cannot find more on that."}}
	cfg := rag.DefaultConfig()
	cfg.MaxIterations = 2

	res, err := newExecutor(provider, valenciaIndex(), valenciaDocs()).Execute(context.Background(), Request{
		Question: "What tours are available in Valencia at night?",
		Config:   cfg,
	})
	require.NoError(t, err)

	assert.Equal(t, []router.Stage{
		router.Analyze, router.Retrieve, router.Generate,
		router.Retrieve, router.Generate, router.End,
	}, res.Path)
	assert.Equal(t, 2, res.RetrievalCount)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 2, provider.chats)
	assert.True(t, res.Insufficient)
	assert.Len(t, res.State.ConversationHistory, 4)
}

func TestExecute_RetrievalBound(t *testing.T) {
	for n := 0; n <= 5; n++ {
		provider := &scriptedLLM{chatReplies: []string{prompt.RefusalPhrase}}
		cfg := rag.DefaultConfig()
		cfg.MaxIterations = n

		res, err := newExecutor(provider, valenciaIndex(), valenciaDocs()).Execute(context.Background(), Request{
			Question: "Is there a night tour in Valencia?",
			Config:   cfg,
		})
		require.NoError(t, err)

		retrieves := 0
		for _, s := range res.Path {
			if s == router.Retrieve {
				retrieves++
			}
		}
		assert.LessOrEqual(t, retrieves, n+1, "maxIterations=%d", n)
		assert.Equal(t, retrieves, res.RetrievalCount)
		assert.Equal(t, router.End, res.Path[len(res.Path)-1])
	}
}

func TestExecute_Idempotent(t *testing.T) {
	run := func() *Result {
		provider := &scriptedLLM{chatReplies: []string{"Walking tours daily."}}
		res, err := newExecutor(provider, valenciaIndex(), valenciaDocs()).Execute(context.Background(), Request{
			Question: "What tours are available in Valencia?",
			Config:   rag.DefaultConfig(),
		})
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Documents, second.Documents)
	assert.Equal(t, first.Iterations, second.Iterations)
	assert.Equal(t, first.RetrievalCount, second.RetrievalCount)
}

func TestExecute_SessionContinuity(t *testing.T) {
	sessions := newMemorySessions()
	provider := &scriptedLLM{chatReplies: []string{"Walking tours daily."}}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithSessionStore(sessions))

	_, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: "u-1", Config: rag.DefaultConfig()})
	require.NoError(t, err)

	res, err := p.Execute(context.Background(), Request{Question: "And how long is the walking tour?", SessionID: "u-1", Config: rag.DefaultConfig()})
	require.NoError(t, err)

	assert.Len(t, res.State.ConversationHistory, 4)
	assert.Equal(t, "What tours are available in Valencia?", res.State.ConversationHistory[0].Content)
	assert.Equal(t, 2, res.State.Iterations)
	assert.Equal(t, 2, res.State.RetrievalCount)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 1, res.RetrievalCount)
	assert.Equal(t, 2, sessions.saves)
}

func TestExecute_ExplicitHistoryOverridesCheckpoint(t *testing.T) {
	sessions := newMemorySessions()
	provider := &scriptedLLM{chatReplies: []string{"ok"}}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithSessionStore(sessions))

	_, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: "u-1", Config: rag.DefaultConfig()})
	require.NoError(t, err)

	res, err := p.Execute(context.Background(), Request{
		Question:            "What tours are available in Valencia?",
		SessionID:           "u-1",
		ConversationHistory: []llm.Message{},
		Config:              rag.DefaultConfig(),
	})
	require.NoError(t, err)
	assert.Len(t, res.State.ConversationHistory, 2)
}

func TestExecute_NoCheckpointOnError(t *testing.T) {
	sessions := newMemorySessions()
	provider := &scriptedLLM{chatErr: errors.New("model overloaded")}
	observer := &countingObserver{}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithSessionStore(sessions), WithObserver(observer))

	res, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: "u-1", Config: rag.DefaultConfig()})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, rag.ErrGeneration)
	assert.Zero(t, sessions.saves)
	assert.Equal(t, 1, observer.failed)
}

func TestExecute_NoCheckpointOnCancel(t *testing.T) {
	sessions := newMemorySessions()
	ctx, cancel := context.WithCancel(context.Background())
	provider := &scriptedLLM{chatReplies: []string{"fine"}, onChat: cancel}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithSessionStore(sessions))

	res, err := p.Execute(ctx, Request{Question: "What tours are available in Valencia?", SessionID: "u-1", Config: rag.DefaultConfig()})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sessions.saves)

	_, found, _ := sessions.Load(context.Background(), "u-1")
	assert.False(t, found)
}

func TestExecute_RejectsBadInput(t *testing.T) {
	p := newExecutor(&scriptedLLM{chatReplies: []string{"x"}}, valenciaIndex(), valenciaDocs())

	_, err := p.Execute(context.Background(), Request{Question: "   ", Config: rag.DefaultConfig()})
	assert.ErrorIs(t, err, rag.ErrEmptyQuestion)

	cfg := rag.DefaultConfig()
	cfg.TopK = 0
	_, err = p.Execute(context.Background(), Request{Question: "q", Config: cfg})
	assert.ErrorIs(t, err, rag.ErrConfiguration)
}

func TestExecute_PublishesAndObserves(t *testing.T) {
	pub := &recordingPublisher{}
	observer := &countingObserver{}
	provider := &scriptedLLM{chatReplies: []string{"Walking tours daily."}}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithPublisher(pub), WithObserver(observer))

	_, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: "u-9", Config: rag.DefaultConfig()})
	require.NoError(t, err)

	require.Len(t, pub.got, 1)
	assert.Equal(t, events.TypeTurnCompleted, pub.got[0].EventType())
	assert.Equal(t, "u-9", pub.got[0].Payload()["session_id"])

	assert.Equal(t, 1, observer.turns)
	assert.Equal(t, 1, observer.stages[router.Analyze])
	assert.Equal(t, 1, observer.stages[router.Retrieve])
	assert.Equal(t, 1, observer.stages[router.Generate])
}

func TestExecute_ConcurrentSessions(t *testing.T) {
	sessions := newMemorySessions()
	provider := &scriptedLLM{chatReplies: []string{"Walking tours daily."}}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithSessionStore(sessions))

	const turns = 5
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		for i := 0; i < turns; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: id, Config: rag.DefaultConfig()})
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{"a", "b"} {
		st, found, err := sessions.Load(context.Background(), id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Len(t, st.ConversationHistory, 2*turns)
		assert.Equal(t, turns, st.RetrievalCount)
	}
	assert.Zero(t, p.locks.size())
}

func TestResetSession(t *testing.T) {
	sessions := newMemorySessions()
	provider := &scriptedLLM{chatReplies: []string{"Walking tours daily."}}
	p := newExecutor(provider, valenciaIndex(), valenciaDocs(), WithSessionStore(sessions))

	_, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: "u-2", Config: rag.DefaultConfig()})
	require.NoError(t, err)

	require.NoError(t, p.ResetSession(context.Background(), "u-2"))
	require.NoError(t, p.ResetSession(context.Background(), ""))

	res, err := p.Execute(context.Background(), Request{Question: "What tours are available in Valencia?", SessionID: "u-2", Config: rag.DefaultConfig()})
	require.NoError(t, err)
	assert.Len(t, res.State.ConversationHistory, 2)
	assert.Equal(t, 1, res.State.RetrievalCount)
}
