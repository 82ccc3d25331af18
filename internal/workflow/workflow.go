// Package workflow interprets a declarative workflow — fetch, interact,
// extract, wait, screenshot, setVariable, if, loop steps — against a
// persistent browser session. Conditions are evaluated with
// github.com/expr-lang/expr, a sandboxed expression language, never host Go
// code, per the sandboxed-expressions design note.
package workflow

import "time"

// StepType discriminates the Step sum type.
type StepType string

const (
	StepFetch       StepType = "fetch"
	StepInteract    StepType = "interact"
	StepExtract     StepType = "extract"
	StepWait        StepType = "wait"
	StepScreenshot  StepType = "screenshot"
	StepSetVariable StepType = "setVariable"
	StepIf          StepType = "if"
	StepLoop        StepType = "loop"
)

// WaitCondition enumerates the valid wait.condition values.
type WaitCondition string

const (
	WaitNetworkIdle WaitCondition = "networkidle"
	WaitTimeout     WaitCondition = "timeout"
	WaitSelector    WaitCondition = "selector"
)

// Step is one typed action. Only the fields relevant to Type are populated;
// validate() enforces that.
type Step struct {
	Type StepType `yaml:"type" json:"type"`

	// fetch
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`

	// interact
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty"`
	Action   string `yaml:"action,omitempty" json:"action,omitempty"` // click | fill | type
	Value    string `yaml:"value,omitempty" json:"value,omitempty"`

	// extract: no extra fields; result is stored into ResultVariable

	// wait
	Condition  WaitCondition `yaml:"condition,omitempty" json:"condition,omitempty"`
	TimeoutMs  int           `yaml:"timeoutMs,omitempty" json:"timeoutMs,omitempty"`

	// screenshot
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// setVariable
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Value2   string `yaml:"value2,omitempty" json:"-"` // unused; literal value reuses Value
	FromEval string `yaml:"fromEval,omitempty" json:"fromEval,omitempty"`

	// if
	ConditionExpr string `yaml:"condition_expr,omitempty" json:"conditionExpr,omitempty"`
	Then          []Step `yaml:"then,omitempty" json:"then,omitempty"`
	Else          []Step `yaml:"else,omitempty" json:"else,omitempty"`

	// loop
	Over          string `yaml:"over,omitempty" json:"over,omitempty"`
	Times         int    `yaml:"times,omitempty" json:"times,omitempty"`
	BreakIf       string `yaml:"breakIf,omitempty" json:"breakIf,omitempty"`
	MaxIterations int    `yaml:"maxIterations,omitempty" json:"maxIterations,omitempty"`
	Body          []Step `yaml:"body,omitempty" json:"body,omitempty"`

	// ResultVariable names the variable an extract/fetch step's output is
	// stored into.
	ResultVariable string `yaml:"resultVariable,omitempty" json:"resultVariable,omitempty"`
}

// Options controls overall workflow execution.
type Options struct {
	Timeout         time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ContinueOnError bool          `yaml:"continueOnError,omitempty" json:"continueOnError,omitempty"`
	SessionTTL      time.Duration `yaml:"sessionTtl,omitempty" json:"sessionTtl,omitempty"`
}

// Workflow is the top-level declarative document.
type Workflow struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Options     Options           `yaml:"options,omitempty" json:"options,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Steps       []Step            `yaml:"steps" json:"steps"`
}

// RunStatus is the terminal status of one Execute call.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusTimeout   RunStatus = "timeout"
)

// StepResult records one executed step's outcome for the caller's audit
// trail.
type StepResult struct {
	Index int    `json:"index"`
	Type  StepType `json:"type"`
	Error string `json:"error,omitempty"`
}

// Result is Execute's return value.
type Result struct {
	Status    RunStatus         `json:"status"`
	Steps     []StepResult      `json:"steps"`
	Variables map[string]any    `json:"variables"`
}

const defaultMaxIterations = 50
