package translation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitabwire/lingo/localization"
	"github.com/pitabwire/lingo/telemetry"
	"github.com/pitabwire/lingo/workerpool"
)

// Engine installs the bundles of References into a Runtime, loading lazy
// languages at most once per reference and walking the fallback chain.
type Engine struct {
	runtime  Runtime
	pool     workerpool.Manager
	registry *registry
	metrics  *engineMetrics
	tracer   telemetry.Tracer

	reloadOnLanguageChange bool
	unsubscribe            func()

	mu       sync.Mutex
	closed   bool
	inflight int
	idle     chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkerPool runs language loads as jobs on pool instead of bare goroutines.
func WithWorkerPool(pool workerpool.Manager) Option {
	return func(e *Engine) {
		e.pool = pool
	}
}

// WithReloadOnLanguageChange controls whether a languageChanged event re-runs lazy loads
// for every reference seen so far. It is on by default for runtimes implementing Subscriber.
func WithReloadOnLanguageChange(enabled bool) Option {
	return func(e *Engine) {
		e.reloadOnLanguageChange = enabled
	}
}

// NewEngine creates an engine driving runtime.
func NewEngine(runtime Runtime, opts ...Option) *Engine {
	e := &Engine{
		runtime:                runtime,
		registry:               newRegistry(),
		metrics:                newEngineMetrics(),
		tracer:                 telemetry.NewTracer(instrumentationName),
		reloadOnLanguageChange: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if subscriber, ok := runtime.(Subscriber); ok && e.reloadOnLanguageChange {
		e.unsubscribe = subscriber.Subscribe(e.onRuntimeEvent)
	}

	return e
}

// Runtime returns the runtime the engine installs into.
func (e *Engine) Runtime() Runtime {
	return e.runtime
}

// UseReference installs the eager resources of ref and starts loading its lazy resources
// for the active language. The returned channel yields the lazy load result once and is
// then closed, callers are free to ignore it.
func (e *Engine) UseReference(ctx context.Context, ref *Reference) <-chan error {
	e.InstallEagerResources(ctx, ref)
	return e.startLazy(ctx, ref)
}

// InstallEagerResources merges every eager bundle of ref not installed before.
func (e *Engine) InstallEagerResources(ctx context.Context, ref *Reference) {
	e.installEager(ctx, ref, ref.EagerResources())
}

func (e *Engine) installEager(ctx context.Context, ref *Reference, resources map[string]Messages) {
	if e.isClosed() {
		util.Log(ctx).WithField("namespace", ref.ID()).Debug("engine closed, eager translations not installed")
		return
	}

	languages := make([]string, 0, len(resources))
	for lang := range resources {
		languages = append(languages, lang)
	}
	slices.Sort(languages)

	log := util.Log(ctx).WithField("namespace", ref.ID())
	for _, lang := range e.registry.markEager(ref, languages) {
		e.runtime.AddBundle(lang, ref.ID(), resources[lang])
		e.metrics.eagerInstalled(ctx, ref.ID(), lang)
		log.WithField("language", lang).Debug("installed eager translations")
	}
}

// LoadLazyResources loads the active language of the runtime and its fallback chain for ref.
// Only a failing loader of the active language is reported, as a *LoadError. When ctx ends
// first its error is returned while the loads still run to completion.
func (e *Engine) LoadLazyResources(ctx context.Context, ref *Reference) error {
	done := e.startLazy(ctx, ref)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadState reports the lazy load progress of lang for ref.
func (e *Engine) LoadState(ref *Reference, lang string) LoadState {
	return e.registry.state(ref, lang)
}

// EagerInstalled reports whether the eager bundle of lang was installed for ref.
func (e *Engine) EagerInstalled(ref *Reference, lang string) bool {
	return e.registry.eagerInstalled(ref, lang)
}

// References lists every reference the engine has seen, in first use order.
func (e *Engine) References() []*Reference {
	return e.registry.references()
}

// Wait blocks until every load started so far has settled.
// It is safe to call while other goroutines start loads or close the engine.
func (e *Engine) Wait() {
	<-e.settled()
}

// Close stops reacting to language changes, waits for running loads and forgets all references.
// Loads requested after Close fail with ErrEngineClosed.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if e.unsubscribe != nil {
		e.unsubscribe()
	}

	select {
	case <-e.settled():
	case <-ctx.Done():
		return ctx.Err()
	}

	e.registry.reset()
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// begin registers a load in flight, unless the engine is closed.
func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	if e.inflight == 0 {
		e.idle = make(chan struct{})
	}
	e.inflight++
	return true
}

func (e *Engine) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.inflight--
	if e.inflight == 0 {
		close(e.idle)
		e.idle = nil
	}
}

// settled returns a channel closed once no load is in flight.
func (e *Engine) settled() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.idle == nil {
		idle := make(chan struct{})
		close(idle)
		return idle
	}
	return e.idle
}

func (e *Engine) fallbackChain(active string) []string {
	return e.runtime.ResolveFallbackChain(e.runtime.FallbackRule(), active)
}

// candidateLanguages returns the chain followed by the active language, without duplicates or blanks.
func candidateLanguages(chain []string, active string) []string {
	seen := make(map[string]struct{}, len(chain)+1)
	candidates := make([]string, 0, len(chain)+1)
	for _, lang := range append(slices.Clone(chain), active) {
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		candidates = append(candidates, lang)
	}
	return candidates
}

type languageJob struct {
	language string
	job      workerpool.Job[error]
}

func (e *Engine) startLazy(ctx context.Context, ref *Reference) <-chan error {
	done := make(chan error, 1)

	if !e.begin() {
		done <- ErrEngineClosed
		close(done)
		return done
	}

	active := e.runtime.Language()
	candidates := candidateLanguages(e.fallbackChain(active), active)

	log := util.Log(ctx).WithField("namespace", ref.ID()).WithField("language", active)

	launch := e.registry.markLazy(ref, active, candidates)
	if len(launch) == 0 {
		log.Debug("lazy translations already attempted")
		e.finish()
		done <- nil
		close(done)
		return done
	}

	loaders := e.registry.loaders(ref)
	workCtx := context.WithoutCancel(ctx)

	jobs := make([]languageJob, 0, len(launch))
	for _, lang := range launch {
		jobs = append(jobs, languageJob{
			language: lang,
			job:      e.submit(workCtx, ref, lang, loaders[lang]),
		})
	}

	go e.collect(workCtx, ref, active, jobs, done)

	return done
}

func (e *Engine) submit(ctx context.Context, ref *Reference, lang string, loader LazyLoader) workerpool.Job[error] {
	job := workerpool.NewJobWithBuffer(
		func(ctx context.Context, result workerpool.JobResultPipe[error]) error {
			return result.WriteResult(ctx, e.loadLanguage(ctx, ref, lang, loader))
		}, 1)

	err := workerpool.SubmitJob(ctx, e.pool, job)
	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("namespace", ref.ID()).
			WithField("language", lang).
			Debug("worker pool unavailable, loading on a dedicated goroutine")
		go workerpool.ExecuteJob(ctx, job)
	}

	return job
}

// loadLanguage runs the backend reload and the local loader of one language side by side.
func (e *Engine) loadLanguage(ctx context.Context, ref *Reference, lang string, loader LazyLoader) error {
	namespace := ref.ID()

	ctx, span := e.tracer.Start(ctx, "LoadLanguage", trace.WithAttributes(
		telemetry.AttrNamespaceKey.String(namespace),
		telemetry.AttrLanguageKey.String(lang),
	))

	var err error
	defer func() {
		e.tracer.End(ctx, span, err)
	}()

	var (
		wg        sync.WaitGroup
		reloadErr error
	)
	if e.runtime.HasBackend() {
		wg.Go(func() {
			reloadErr = e.runtime.ReloadBundles(ctx, []string{lang}, []string{namespace})
		})
	}

	var (
		messages Messages
		loadErr  error
	)
	if loader != nil {
		messages, loadErr = invokeLoader(ctx, loader)
	}

	wg.Wait()

	switch {
	case loader != nil && loadErr != nil:
		err = &LoadError{Namespace: namespace, Language: lang, Err: loadErr}
	case loader != nil:
		if reloadErr != nil {
			util.Log(ctx).WithError(reloadErr).
				WithField("namespace", namespace).
				WithField("language", lang).
				Warn("backend reload failed, keeping locally loaded translations")
		}
		e.runtime.AddBundle(lang, namespace, messages)
	case reloadErr != nil:
		err = &ReloadError{Namespace: namespace, Language: lang, Err: reloadErr}
	}

	return err
}

func invokeLoader(ctx context.Context, loader LazyLoader) (messages Messages, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lazy loader panicked: %v", r)
		}
	}()

	return loader(ctx)
}

// collect joins every language job, settles its state and reports the active language's failure.
func (e *Engine) collect(ctx context.Context, ref *Reference, active string, jobs []languageJob, done chan<- error) {
	defer e.finish()
	defer close(done)

	log := util.Log(ctx).WithField("namespace", ref.ID())

	var (
		activeErr error
		succeeded int
	)

	for _, lj := range jobs {
		err := jobOutcome(ctx, lj.job)

		e.metrics.lazyLoaded(ctx, ref.ID(), lj.language, err)

		if err == nil {
			e.registry.settle(ref, lj.language, Succeeded)
			succeeded++
			continue
		}

		e.registry.settle(ref, lj.language, Failed)

		var loadErr *LoadError
		if lj.language == active && errors.As(err, &loadErr) {
			activeErr = err
			log.WithError(err).WithField("language", lj.language).Error("could not load translations")
			continue
		}

		log.WithError(err).WithField("language", lj.language).Warn("could not load fallback translations")
	}

	if succeeded > 0 {
		e.runtime.Emit(ctx, localization.Event{
			Name:      localization.EventLoaded,
			Language:  active,
			Namespace: ref.ID(),
		})
		e.metrics.loaded(ctx, ref.ID())
	}

	done <- activeErr
}

func jobOutcome(ctx context.Context, job workerpool.Job[error]) error {
	result, ok := job.ReadResult(ctx)
	if !ok || result == nil {
		return workerpool.ErrWorkerPoolResultChannelIsClosed
	}
	if result.IsError() {
		return result.Error()
	}
	return result.Item()
}

func (e *Engine) onRuntimeEvent(ctx context.Context, event localization.Event) {
	if event.Name != localization.EventLanguageChanged {
		return
	}

	for _, ref := range e.registry.references() {
		// nothing to fetch for references holding only eager bundles
		if len(e.registry.loaders(ref)) == 0 && !e.runtime.HasBackend() {
			continue
		}
		e.startLazy(ctx, ref)
	}
}
