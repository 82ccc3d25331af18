package workflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperifyio/contentdistiller/internal/agentic"
	"github.com/hyperifyio/contentdistiller/internal/fetch"
	"github.com/hyperifyio/contentdistiller/internal/fetchclient"
)

type fakeLocator struct {
	clicked    bool
	filled     string
	typedValue string
}

func (l *fakeLocator) IsVisible(ctx context.Context, timeoutMs int) (bool, error) { return true, nil }
func (l *fakeLocator) Click(ctx context.Context) error                           { l.clicked = true; return nil }
func (l *fakeLocator) Fill(ctx context.Context, value string) error              { l.filled = value; return nil }
func (l *fakeLocator) Type(ctx context.Context, value string) error              { l.typedValue = value; return nil }

type fakePage struct {
	url     string
	content string
	loc     *fakeLocator
}

func (p *fakePage) URL() string                                 { return p.url }
func (p *fakePage) Content(ctx context.Context) (string, error) { return p.content, nil }
func (p *fakePage) Goto(ctx context.Context, url string, waitUntil string) error {
	p.url = url
	return nil
}
func (p *fakePage) Evaluate(ctx context.Context, expr string, args ...any) (any, error) {
	return nil, nil
}
func (p *fakePage) WaitForTimeout(ctx context.Context, ms int) error { return nil }
func (p *fakePage) WaitForSelector(ctx context.Context, selector string, state string, timeoutMs int) error {
	return nil
}
func (p *fakePage) Locator(selector string) agentic.Locator {
	if p.loc == nil {
		p.loc = &fakeLocator{}
	}
	return p.loc
}

func TestExecute_FetchAndSetVariableAndIf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("page body"))
	}))
	defer srv.Close()

	fc := &fetchclient.Client{HTTP: &fetch.Client{HTTPClient: srv.Client(), UserAgent: "test", MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}}
	e := &Engine{Fetch: fc}

	wf := Workflow{
		Name: "test",
		Steps: []Step{
			{Type: StepFetch, URL: srv.URL, ResultVariable: "body"},
			{Type: StepSetVariable, Name: "flag", FromEval: `len(body) > 0`},
			{Type: StepIf, ConditionExpr: "flag", Then: []Step{
				{Type: StepSetVariable, Name: "branch", Value: "then"},
			}, Else: []Step{
				{Type: StepSetVariable, Name: "branch", Value: "else"},
			}},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (steps=%+v)", res.Status, res.Steps)
	}
	if res.Variables["branch"] != "then" {
		t.Fatalf("expected the then-branch to run, got %v", res.Variables["branch"])
	}
}

func TestExecute_LoopOverItemsRespectsMaxIterations(t *testing.T) {
	e := &Engine{}
	wf := Workflow{
		Name: "loop-test",
		Steps: []Step{
			{Type: StepSetVariable, Name: "items", FromEval: "[1, 2, 3]"},
			{Type: StepLoop, Over: "items", MaxIterations: 2, Body: []Step{
				{Type: StepSetVariable, Name: "last", FromEval: "__index"},
			}},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (steps=%+v)", res.Status, res.Steps)
	}
	if res.Variables["last"] != 1 {
		t.Fatalf("expected loop to stop at maxIterations (last index 1), got %v", res.Variables["last"])
	}
}

func TestExecute_LoopTimesRunsBoundedIterations(t *testing.T) {
	e := &Engine{}
	wf := Workflow{
		Name: "loop-times",
		Steps: []Step{
			{Type: StepLoop, Times: 5, MaxIterations: 3, Body: []Step{
				{Type: StepSetVariable, Name: "seen", FromEval: "__index"},
			}},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v", res.Status)
	}
	if res.Variables["seen"] != 2 {
		t.Fatalf("expected loop bounded to maxIterations (last index 2), got %v", res.Variables["seen"])
	}
}

func TestExecute_ContinueOnErrorKeepsRunningAfterStepFailure(t *testing.T) {
	e := &Engine{}
	wf := Workflow{
		Name:    "continue",
		Options: Options{ContinueOnError: true},
		Steps: []Step{
			{Type: StepInteract, Selector: "#x", Action: "click"}, // fails: no session
			{Type: StepSetVariable, Name: "reached", Value: "yes"},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusFailed {
		t.Fatalf("expected failed status due to step error, got %v", res.Status)
	}
	if res.Variables["reached"] != "yes" {
		t.Fatal("expected execution to continue past the failed step")
	}
}

func TestExecute_StopsOnErrorWhenContinueOnErrorIsFalse(t *testing.T) {
	e := &Engine{}
	wf := Workflow{
		Name: "stop",
		Steps: []Step{
			{Type: StepInteract, Selector: "#x", Action: "click"},
			{Type: StepSetVariable, Name: "reached", Value: "yes"},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %v", res.Status)
	}
	if _, ok := res.Variables["reached"]; ok {
		t.Fatal("expected execution to stop before the second step")
	}
}

func TestExecute_InteractStepUsesSessionPage(t *testing.T) {
	page := &fakePage{url: "https://example.com"}
	e := &Engine{Session: func(ctx context.Context) (agentic.Page, func(), error) {
		return page, func() {}, nil
	}}
	wf := Workflow{
		Name: "interact",
		Steps: []Step{
			{Type: StepInteract, Selector: "#btn", Action: "click"},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v", res.Status)
	}
	if !page.loc.clicked {
		t.Fatal("expected the locator to have been clicked")
	}
}

type blockingPage struct{ fakePage }

func (p *blockingPage) WaitForTimeout(ctx context.Context, ms int) error {
	time.Sleep(200 * time.Millisecond) // ignores ctx deadline on purpose
	return nil
}

func TestExecute_TimeoutReportsTimeoutStatus(t *testing.T) {
	page := &blockingPage{}
	e := &Engine{Session: func(ctx context.Context) (agentic.Page, func(), error) {
		return page, func() {}, nil
	}}
	wf := Workflow{
		Name:    "slow",
		Options: Options{Timeout: 5 * time.Millisecond},
		Steps: []Step{
			{Type: StepWait, Condition: WaitNetworkIdle, TimeoutMs: 200},
		},
	}
	res := e.Execute(context.Background(), wf)
	if res.Status != StatusTimeout {
		t.Fatalf("expected timeout status, got %v", res.Status)
	}
}

func TestSubstitute_ReplacesKnownPlaceholdersOnly(t *testing.T) {
	r := &run{vars: map[string]any{"name": "world"}}
	got := r.substitute("hello {{name}} and {{unknown}}")
	if got != "hello world and {{unknown}}" {
		t.Fatalf("unexpected substitution result: %q", got)
	}
}
