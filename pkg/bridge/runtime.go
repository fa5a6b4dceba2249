package bridge

import (
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dop251/goja"
	"github.com/golang/groupcache/lru"

	"jsexec/pkg/config"
)

var (
	ErrNotInitialized     = stderrors.New("bridge: runtime not initialized")
	ErrAlreadyInitialized = stderrors.New("bridge: runtime already initialized")
	ErrContextClosed      = stderrors.New("bridge: context is closed")
)

// Process-wide engine state. Init happens at most once.
var (
	runtimeMu sync.Mutex
	current   *Runtime
)

// Runtime is the process-wide engine instance. It owns the shared program
// cache and hands out Contexts.
type Runtime struct {
	cfg   config.Config
	level slog.LevelVar

	mu         sync.Mutex
	log        *slog.Logger
	programs   *lru.Cache
	stats      CacheStats
	nextID     uint64
	live       int
	defaultCtx *Context
}

// CacheStats reports program cache effectiveness.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Init creates the runtime. A second call fails with ErrAlreadyInitialized;
// use Acquire to share an existing runtime. A nil cfg means config.Default().
func Init(cfg *config.Config) (*Runtime, error) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if current != nil {
		return nil, ErrAlreadyInitialized
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return nil, err
	}
	current = rt
	return rt, nil
}

// Acquire returns the runtime, initializing it with cfg on first use. Later
// calls ignore cfg.
func Acquire(cfg *config.Config) (*Runtime, error) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if current != nil {
		return current, nil
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return nil, err
	}
	current = rt
	return rt, nil
}

func IsInitialized() bool {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	return current != nil
}

// Current returns the initialized runtime or ErrNotInitialized.
func Current() (*Runtime, error) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if current == nil {
		return nil, ErrNotInitialized
	}
	return current, nil
}

// EmptyContext creates a fresh context with only the standard globals.
func EmptyContext() (*Context, error) {
	rt, err := Current()
	if err != nil {
		return nil, err
	}
	return rt.NewContext()
}

func newRuntime(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt := &Runtime{cfg: *cfg}
	rt.level.Set(cfg.LogLevel.SlogLevel())
	rt.log = rt.newLogger(os.Stderr)
	if cfg.ProgramCacheSize > 0 {
		rt.programs = lru.New(cfg.ProgramCacheSize)
		// Runs under r.mu, from programs.Add.
		rt.programs.OnEvicted = func(key lru.Key, _ interface{}) {
			rt.stats.Evictions++
			rt.log.Debug("evicted program", "script", key.(programKey).name)
		}
	}
	rt.logger().Info("runtime initialized",
		"max_call_stack_size", cfg.MaxCallStackSize,
		"program_cache_size", cfg.ProgramCacheSize,
		"strict", cfg.Strict)
	return rt, nil
}

// Config returns a copy of the settings the runtime was created with.
func (r *Runtime) Config() config.Config { return r.cfg }

// SetLogOutput redirects lifecycle logging.
func (r *Runtime) SetLogOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = r.newLogger(w)
}

// SetLogLevel changes the logging threshold of a running runtime.
func (r *Runtime) SetLogLevel(l config.LogLevel) {
	r.level.Set(l.SlogLevel())
}

func (r *Runtime) newLogger(w io.Writer) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &r.level})
	return slog.New(h).With("component", "jsexec")
}

func (r *Runtime) logger() *slog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log
}

// NewContext creates an independent context: its own global object, call
// stack and job queue.
func (r *Runtime) NewContext() (*Context, error) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.mu.Unlock()

	c, err := newContext(r, id)
	if err != nil {
		r.logger().Error("context setup failed", "context", id, "err", err)
		return nil, err
	}

	r.mu.Lock()
	r.live++
	live := r.live
	r.mu.Unlock()
	r.logger().Debug("context opened", "context", id, "live", live)
	return c, nil
}

// DefaultContext returns the runtime's shared context, creating it on first
// use. Closing it makes the next call create a new one.
func (r *Runtime) DefaultContext() (*Context, error) {
	r.mu.Lock()
	c := r.defaultCtx
	r.mu.Unlock()
	if c != nil && !c.closed {
		return c, nil
	}
	c, err := r.NewContext()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.defaultCtx = c
	r.mu.Unlock()
	return c, nil
}

// CompileAndEvaluateScript evaluates src in the default context.
func (r *Runtime) CompileAndEvaluateScript(src string) (Value, error) {
	c, err := r.DefaultContext()
	if err != nil {
		return Undefined(), err
	}
	return c.CompileAndEvaluateScript(src)
}

// LiveContexts is the number of contexts not yet closed.
func (r *Runtime) LiveContexts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

func (r *Runtime) CacheStats() CacheStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	if r.programs != nil {
		s.Entries = r.programs.Len()
	}
	return s
}

func (r *Runtime) contextClosed(c *Context) {
	r.mu.Lock()
	r.live--
	live := r.live
	if r.defaultCtx == c {
		r.defaultCtx = nil
	}
	r.mu.Unlock()
	r.logger().Debug("context closed", "context", c.id, "live", live)
}

type programKey struct {
	name, src string
	strict    bool
}

// compile parses src once per (name, source) pair; compiled programs are
// immutable and shared by all contexts.
func (r *Runtime) compile(name, src string) (*goja.Program, error) {
	key := programKey{name: name, src: src, strict: r.cfg.Strict}
	if r.programs != nil {
		r.mu.Lock()
		if p, ok := r.programs.Get(key); ok {
			r.stats.Hits++
			r.mu.Unlock()
			return p.(*goja.Program), nil
		}
		r.stats.Misses++
		r.mu.Unlock()
	}

	prog, err := goja.Compile(name, src, r.cfg.Strict)
	if err != nil {
		r.logger().Debug("compile failed", "script", name, "err", err)
		return nil, err
	}
	if r.programs != nil {
		r.mu.Lock()
		r.programs.Add(key, prog)
		r.mu.Unlock()
	}
	return prog, nil
}
