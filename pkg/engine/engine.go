// Package engine evaluates geometry scripts. It wraps zygomys in a sandbox,
// installs the layer-building builtins and returns the resulting catalog.
package engine

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/detgeo/pkg/catalog"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/rs/zerolog"
)

// EvalError is a failure in user code: a parse error, a runtime error, a
// rejected layer construction or a blocking validation finding.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Engine evaluates scripts. It is safe for concurrent use; each Evaluate
// runs in a fresh sandbox.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	log     zerolog.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{timeout: opts.Timeout, log: zerolog.New(io.Discard)}
	if e.timeout <= 0 {
		e.timeout = EvalTimeout
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	}
	return e
}

// Result is the outcome of one evaluation. Catalog is nil when Errors is
// not empty. Warnings are advisory findings on a catalog that was accepted.
type Result struct {
	Catalog  *catalog.Catalog
	Warnings []catalog.ValidationWarning
	Errors   []EvalError
}

// Evaluate runs source and returns the catalog of layers it built.
//
// Return semantics:
//   - On success: a Result with a catalog and any warnings, nil
//   - On a script or construction failure: a Result with Errors, nil
//   - On timeout, panic or a superseded run: an empty Result, error
//
// A run that times out has its sandbox stopped before Evaluate returns.
func (e *Engine) Evaluate(source string) (Result, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	if strings.TrimSpace(source) == "" {
		e.log.Info().Uint64("generation", gen).Int("layers", 0).Msg("evaluation complete")
		return Result{Catalog: catalog.New()}, nil
	}

	env := zygo.NewZlispSandbox()
	stop := sync.OnceFunc(func() { env.Stop() })

	ch := make(chan evalResult, 1)
	go func() {
		defer stop()
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		res := e.evaluate(env, source)
		ch <- evalResult{res: res}
	}()

	start := time.Now()
	res, err := waitWithTimeout(ch, gen, e.timeout, &e.mu, &e.generation, stop)
	ev := e.log.Info().Uint64("generation", gen).Dur("elapsed", time.Since(start))
	switch {
	case err != nil:
		ev.Err(err).Msg("evaluation failed")
	case len(res.Errors) > 0:
		ev.Int("errors", len(res.Errors)).Msg("evaluation rejected")
	default:
		ev.Int("layers", res.Catalog.Count()).Msg("evaluation complete")
	}
	return res, err
}

func (e *Engine) evaluate(env *zygo.Zlisp, source string) Result {
	b := &builder{cat: catalog.New(), log: e.log}
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return Result{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return Result{Errors: parseZygomysError(err)}
	}

	vr := catalog.ValidateAll(b.cat)
	for _, w := range vr.Warnings {
		e.log.Warn().Str("layer", w.ID.Short()).Msg(w.Message)
	}
	if !vr.OK() {
		errs := make([]EvalError, 0, len(vr.Errors))
		for _, ve := range vr.Errors {
			errs = append(errs, EvalError{Message: ve.Error()})
		}
		return Result{Errors: errs}
	}
	return Result{Catalog: b.cat, Warnings: vr.Warnings}
}

// linePattern matches zygomys errors of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, extracting the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
