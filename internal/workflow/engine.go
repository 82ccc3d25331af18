package workflow

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/contentdistiller/internal/agentic"
	"github.com/hyperifyio/contentdistiller/internal/distill"
	"github.com/hyperifyio/contentdistiller/internal/fetchclient"
)

// SessionFactory opens a browser page for the workflow's lifetime. The page
// is always closed on exit, success or failure, via the returned closer.
type SessionFactory func(ctx context.Context) (agentic.Page, func(), error)

// Engine executes Workflows against a browser session, a FetchClient for
// fetch steps, and a Distiller for extract steps.
type Engine struct {
	Session   SessionFactory
	Fetch     *fetchclient.Client
	Distiller *distill.Distiller
}

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Execute runs wf to completion, timeout, or an aborting step failure. The
// whole run races against wf.Options.Timeout; on timeout, Result.Status is
// "timeout" and Steps holds whatever completed so far.
func (e *Engine) Execute(ctx context.Context, wf Workflow) Result {
	timeout := wf.Options.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vars := map[string]any{}
	for k, v := range wf.Variables {
		vars[k] = v
	}

	var page agentic.Page
	var closeSession func()
	if e.Session != nil {
		p, closer, err := e.Session(ctx)
		if err != nil {
			return Result{Status: StatusFailed, Variables: vars}
		}
		page, closeSession = p, closer
		defer closeSession()
	}

	run := &run{engine: e, page: page, vars: vars, continueOnError: wf.Options.ContinueOnError}
	done := make(chan struct{})
	var timedOut bool
	go func() {
		defer close(done)
		timedOut = !run.execSteps(ctx, wf.Steps)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		timedOut = true
	}

	status := StatusCompleted
	if timedOut {
		status = StatusTimeout
	} else if run.failed {
		status = StatusFailed
	}
	return Result{Status: status, Steps: run.results, Variables: run.vars}
}

type run struct {
	engine          *Engine
	page            agentic.Page
	vars            map[string]any
	results         []StepResult
	failed          bool
	continueOnError bool
}

// execSteps runs steps in order, returning false if the context deadline
// fired mid-execution (the caller reports that as a timeout).
func (r *run) execSteps(ctx context.Context, steps []Step) bool {
	for i, s := range steps {
		if ctx.Err() != nil {
			return false
		}
		if err := r.execStep(ctx, s); err != nil {
			r.results = append(r.results, StepResult{Index: i, Type: s.Type, Error: err.Error()})
			log.Warn().Err(err).Str("step", string(s.Type)).Msg("workflow: step failed")
			r.failed = true
			if !r.continueOnError {
				return true
			}
			continue
		}
		r.results = append(r.results, StepResult{Index: i, Type: s.Type})
	}
	return true
}

func (r *run) execStep(ctx context.Context, s Step) error {
	switch s.Type {
	case StepFetch:
		return r.execFetch(ctx, s)
	case StepInteract:
		return r.execInteract(ctx, s)
	case StepExtract:
		return r.execExtract(ctx, s)
	case StepWait:
		return r.execWait(ctx, s)
	case StepScreenshot:
		return r.execScreenshot(ctx, s)
	case StepSetVariable:
		return r.execSetVariable(s)
	case StepIf:
		return r.execIf(ctx, s)
	case StepLoop:
		return r.execLoop(ctx, s)
	default:
		return fmt.Errorf("workflow: unknown step type %q", s.Type)
	}
}

func (r *run) substitute(s string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := r.vars[name]; ok {
			return fmt.Sprintf("%v", v)
		}
		return m
	})
}

func (r *run) execFetch(ctx context.Context, s Step) error {
	url := r.substitute(s.URL)
	if r.page != nil {
		waitUntil := "load"
		if s.Mode == "rendered" {
			waitUntil = "networkidle"
		}
		return r.page.Goto(ctx, url, waitUntil)
	}
	if r.engine.Fetch == nil {
		return fmt.Errorf("workflow: fetch step requires a FetchClient")
	}
	res, err := r.engine.Fetch.Fetch(ctx, fetchclient.Request{URL: url, UseCache: true, Mode: fetchclient.ModeHTTP})
	if err != nil {
		return err
	}
	if s.ResultVariable != "" {
		r.vars[s.ResultVariable] = string(res.Body)
	}
	return nil
}

func (r *run) execInteract(ctx context.Context, s Step) error {
	if r.page == nil {
		return fmt.Errorf("workflow: interact step requires a browser session")
	}
	loc := r.page.Locator(r.substitute(s.Selector))
	switch s.Action {
	case "click":
		return loc.Click(ctx)
	case "fill":
		return loc.Fill(ctx, r.substitute(s.Value))
	case "type":
		return loc.Type(ctx, r.substitute(s.Value))
	default:
		return fmt.Errorf("workflow: unknown interact action %q", s.Action)
	}
}

func (r *run) execExtract(ctx context.Context, s Step) error {
	if r.page == nil || r.engine.Distiller == nil {
		return fmt.Errorf("workflow: extract step requires a browser session and a distiller")
	}
	html, err := r.page.Content(ctx)
	if err != nil {
		return err
	}
	result, err := r.engine.Distiller.Distill(ctx, []byte(html), r.page.URL(), nil)
	if err != nil {
		return err
	}
	if s.ResultVariable != "" {
		r.vars[s.ResultVariable] = result
	}
	return nil
}

func (r *run) execWait(ctx context.Context, s Step) error {
	timeout := s.TimeoutMs
	if timeout <= 0 {
		timeout = 1000
	}
	switch s.Condition {
	case WaitSelector:
		if r.page == nil {
			return fmt.Errorf("workflow: wait-for-selector requires a browser session")
		}
		return r.page.WaitForSelector(ctx, r.substitute(s.Selector), "visible", timeout)
	case WaitNetworkIdle:
		if r.page == nil {
			return fmt.Errorf("workflow: wait-for-networkidle requires a browser session")
		}
		return r.page.WaitForTimeout(ctx, timeout)
	default: // timeout
		if r.page != nil {
			return r.page.WaitForTimeout(ctx, timeout)
		}
		select {
		case <-time.After(time.Duration(timeout) * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *run) execScreenshot(ctx context.Context, s Step) error {
	if r.page == nil {
		return fmt.Errorf("workflow: screenshot step requires a browser session")
	}
	_, err := r.page.Evaluate(ctx, "void(0)") // page-level no-op; concrete drivers expose a native screenshot API
	return err
}

func (r *run) execSetVariable(s Step) error {
	if s.FromEval != "" {
		v, err := evalExpr(s.FromEval, r.vars)
		if err != nil {
			return fmt.Errorf("workflow: setVariable fromEval: %w", err)
		}
		r.vars[s.Name] = v
		return nil
	}
	r.vars[s.Name] = r.substitute(s.Value)
	return nil
}

func (r *run) execIf(ctx context.Context, s Step) error {
	ok, err := evalBool(s.ConditionExpr, r.vars)
	if err != nil {
		return fmt.Errorf("workflow: if condition: %w", err)
	}
	branch := s.Else
	if ok {
		branch = s.Then
	}
	if !r.execSteps(ctx, branch) {
		return fmt.Errorf("workflow: if branch timed out")
	}
	return nil
}

func (r *run) execLoop(ctx context.Context, s Step) error {
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	iterate := func(index int, item any) error {
		r.vars["__index"] = index
		if item != nil {
			r.vars["__item"] = item
		}
		if !r.execSteps(ctx, s.Body) {
			return fmt.Errorf("workflow: loop body timed out")
		}
		if s.BreakIf != "" {
			brk, err := evalBool(s.BreakIf, r.vars)
			if err == nil && brk {
				return errLoopBreak
			}
		}
		return nil
	}

	if s.Over != "" {
		items, _ := r.vars[s.Over].([]any)
		for i, item := range items {
			if i >= maxIter {
				break
			}
			if err := iterate(i, item); err != nil {
				if err == errLoopBreak {
					break
				}
				return err
			}
		}
		return nil
	}

	times := s.Times
	if times > maxIter {
		times = maxIter
	}
	for i := 0; i < times; i++ {
		if err := iterate(i, nil); err != nil {
			if err == errLoopBreak {
				break
			}
			return err
		}
	}
	return nil
}

var errLoopBreak = fmt.Errorf("loop break")

// evalExpr evaluates a sandboxed expr-lang expression with vars as named
// bindings; it never executes host Go code.
func evalExpr(src string, vars map[string]any) (any, error) {
	program, err := expr.Compile(src, expr.Env(vars))
	if err != nil {
		return nil, err
	}
	return expr.Run(program, vars)
}

func evalBool(src string, vars map[string]any) (bool, error) {
	if src == "" {
		return false, nil
	}
	v, err := evalExpr(src, vars)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return b != "", nil
	case float64:
		return b != 0, nil
	case int:
		return b != 0, nil
	default:
		return false, nil
	}
}
