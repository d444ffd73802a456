package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/events"
	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/analyzer"
	"ai-docsearch-be/pkg/rag/refiner"
	"ai-docsearch-be/pkg/rag/response"
	"ai-docsearch-be/pkg/rag/retriever"
	"ai-docsearch-be/pkg/rag/router"
	"ai-docsearch-be/pkg/rag/session"
	"ai-docsearch-be/pkg/rag/state"
	"ai-docsearch-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "Executor"

// Observer receives timing and outcome of stages and turns.
type Observer interface {
	ObserveStage(stage router.Stage, elapsed time.Duration, err error)
	ObserveTurn(retrievals int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(router.Stage, time.Duration, error) {}
func (nopObserver) ObserveTurn(int, time.Duration, error)           {}

// Request is one user turn.
type Request struct {
	Question string
	// ConversationHistory, when non-nil, replaces any checkpointed history.
	ConversationHistory []llm.Message
	// SessionID enables checkpoint load and save. Empty means stateless.
	SessionID string
	Config    rag.Config
}

// Result is what a completed turn hands back. Counters cover this turn only;
// State holds the cumulative values.
type Result struct {
	Answer         string         `json:"answer"`
	Documents      []string       `json:"documents"`
	Sources        []string       `json:"sources"`
	Iterations     int            `json:"iterations"`
	RetrievalCount int            `json:"retrievalCount"`
	Insufficient   bool           `json:"insufficient"`
	Path           []router.Stage `json:"path"`
	State          state.State    `json:"state"`
}

// PipelineExecutor drives analyze, refine, retrieve and generate until the
// router reaches End.
type PipelineExecutor struct {
	analyzer  *analyzer.Analyzer
	refiner   *refiner.Refiner
	retriever *retriever.Retriever
	generator *response.Generator

	sessions  session.Store
	publisher events.Publisher
	observer  Observer
	tracer    trace.Tracer
	logger    logger.ILogger
	locks     *sessionLocks
}

type Option func(*PipelineExecutor)

func WithSessionStore(s session.Store) Option {
	return func(p *PipelineExecutor) {
		if s != nil {
			p.sessions = s
		}
	}
}

func WithPublisher(pub events.Publisher) Option {
	return func(p *PipelineExecutor) {
		p.publisher = pub
	}
}

func WithObserver(o Observer) Option {
	return func(p *PipelineExecutor) {
		if o != nil {
			p.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *PipelineExecutor) {
		if t != nil {
			p.tracer = t
		}
	}
}

// NewPipelineExecutor wires the four stages around the given clients.
func NewPipelineExecutor(
	llmProvider llm.LLMProvider,
	index store.SemanticIndex,
	docs store.DocumentStore,
	log logger.ILogger,
	opts ...Option,
) *PipelineExecutor {
	p := &PipelineExecutor{
		analyzer:  analyzer.New(llmProvider, log),
		refiner:   refiner.New(llmProvider, log),
		retriever: retriever.New(index, docs, log),
		generator: response.NewGenerator(llmProvider, log),
		sessions:  session.NopStore{},
		observer:  nopObserver{},
		tracer:    otel.Tracer("ai-docsearch-be/rag"),
		logger:    log,
		locks:     newSessionLocks(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs one turn. On any error, including cancellation, nothing is
// checkpointed and no partial answer is returned.
func (p *PipelineExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, rag.ErrEmptyQuestion
	}

	if req.SessionID != "" {
		unlock, err := p.locks.Lock(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	ctx, span := p.tracer.Start(ctx, "rag.turn", trace.WithAttributes(
		attribute.String("rag.session_id", req.SessionID),
		attribute.Int("rag.top_k", cfg.TopK),
		attribute.Int("rag.max_iterations", cfg.MaxIterations),
	))
	defer span.End()

	start := time.Now()
	res, err := p.execute(ctx, req, question, cfg)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.observer.ObserveTurn(0, elapsed, err)
		p.logger.Error(module, "Turn failed", map[string]interface{}{
			"session_id": req.SessionID,
			"error":      err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rag.iterations", res.Iterations),
		attribute.Int("rag.retrieval_count", res.RetrievalCount),
		attribute.Int("rag.documents", len(res.Documents)),
	)
	p.observer.ObserveTurn(res.RetrievalCount, elapsed, nil)
	p.publishTurn(ctx, req.SessionID, res, elapsed)

	return res, nil
}

// ResetSession drops the checkpoint of sessionID. It waits for any turn
// in flight on that session unless ctx ends first.
func (p *PipelineExecutor) ResetSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	unlock, err := p.locks.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	p.logger.Info(module, "Session reset", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (p *PipelineExecutor) execute(ctx context.Context, req Request, question string, cfg rag.Config) (*Result, error) {
	st, err := p.initialState(ctx, req, question)
	if err != nil {
		return nil, err
	}

	final, path, err := p.run(ctx, st, cfg)
	if err != nil {
		return nil, err
	}

	// A cancellation that lands after the last stage still voids the turn.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.SessionID != "" {
		if err := p.sessions.Save(ctx, req.SessionID, final); err != nil {
			return nil, fmt.Errorf("save session %s: %w", req.SessionID, err)
		}
	}

	return &Result{
		Answer:         final.Answer,
		Documents:      final.Documents,
		Sources:        final.Sources,
		Iterations:     final.TurnIterations(),
		RetrievalCount: final.TurnRetrievals(),
		Insufficient:   response.IsInsufficient(final.Answer),
		Path:           path,
		State:          final,
	}, nil
}

func (p *PipelineExecutor) initialState(ctx context.Context, req Request, question string) (state.State, error) {
	if req.SessionID == "" {
		return state.New(question, req.ConversationHistory), nil
	}

	prev, found, err := p.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return state.State{}, fmt.Errorf("load session %s: %w", req.SessionID, err)
	}
	if !found || prev == nil {
		return state.New(question, req.ConversationHistory), nil
	}

	st := state.BeginTurn(*prev, question)
	if req.ConversationHistory != nil {
		st = state.Apply(st, state.Update{ConversationHistory: state.Set(req.ConversationHistory)})
	}

	p.logger.Debug(module, "Session resumed", map[string]interface{}{
		"session_id":      req.SessionID,
		"history":         len(st.ConversationHistory),
		"iterations":      st.Iterations,
		"retrieval_count": st.RetrievalCount,
	})
	return st, nil
}

func (p *PipelineExecutor) run(ctx context.Context, st state.State, cfg rag.Config) (state.State, []router.Stage, error) {
	var path []router.Stage

	for stage := router.Initial; ; stage = router.Next(stage, st, cfg.MaxIterations) {
		path = append(path, stage)
		if stage == router.End {
			return st, path, nil
		}

		if err := ctx.Err(); err != nil {
			return st, path, err
		}

		update, err := p.runStage(ctx, stage, st, cfg)
		if err != nil {
			return st, path, err
		}
		st = state.Apply(st, update)
	}
}

func (p *PipelineExecutor) runStage(ctx context.Context, stage router.Stage, st state.State, cfg rag.Config) (state.Update, error) {
	if cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.StageTimeout)
		defer cancel()
	}

	ctx, span := p.tracer.Start(ctx, "rag."+stage.String())
	defer span.End()

	p.logger.Debug(module, "Stage started", map[string]interface{}{
		"stage":           stage.String(),
		"iterations":      st.TurnIterations(),
		"retrieval_count": st.TurnRetrievals(),
	})

	start := time.Now()
	var (
		update state.Update
		err    error
	)
	switch stage {
	case router.Analyze:
		update, err = p.analyzer.Analyze(ctx, st, cfg)
	case router.Refine:
		update, err = p.refiner.Refine(ctx, st, cfg)
	case router.Retrieve:
		update, err = p.retriever.Retrieve(ctx, st, cfg)
	case router.Generate:
		update, err = p.generator.Generate(ctx, st, cfg)
	case router.End:
	default:
		err = fmt.Errorf("unknown stage %d", stage)
	}
	p.observer.ObserveStage(stage, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Warn(module, "Stage timed out", map[string]interface{}{
				"stage":   stage.String(),
				"timeout": cfg.StageTimeout.String(),
			})
		}
	}
	return update, err
}

func (p *PipelineExecutor) publishTurn(ctx context.Context, sessionID string, res *Result, elapsed time.Duration) {
	if p.publisher == nil {
		return
	}
	event := events.NewTurnCompleted(events.TurnSummary{
		SessionID:      sessionID,
		Question:       res.State.Question,
		Iterations:     res.Iterations,
		RetrievalCount: res.RetrievalCount,
		Documents:      len(res.Documents),
		Sources:        res.Sources,
		Insufficient:   res.Insufficient,
		Duration:       elapsed,
	})
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn(module, "Failed to publish turn event", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
