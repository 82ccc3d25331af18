package workflow

import "fmt"

// Validate performs static validation of wf, returning every error found
// rather than stopping at the first.
func Validate(wf Workflow) []error {
	var errs []error
	if wf.Name == "" {
		errs = append(errs, fmt.Errorf("workflow: name is required"))
	}
	if len(wf.Steps) == 0 {
		errs = append(errs, fmt.Errorf("workflow: at least one step is required"))
	}
	if wf.Options.Timeout < 0 {
		errs = append(errs, fmt.Errorf("workflow: options.timeout must be positive"))
	}
	errs = append(errs, validateSteps(wf.Steps, "steps")...)
	return errs
}

func validateSteps(steps []Step, path string) []error {
	var errs []error
	for i, s := range steps {
		p := fmt.Sprintf("%s[%d]", path, i)
		errs = append(errs, validateStep(s, p)...)
	}
	return errs
}

func validateStep(s Step, path string) []error {
	var errs []error
	switch s.Type {
	case StepFetch:
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("%s: fetch requires url", path))
		}
	case StepInteract:
		if s.Selector == "" {
			errs = append(errs, fmt.Errorf("%s: interact requires selector", path))
		}
		switch s.Action {
		case "click", "fill", "type":
		default:
			errs = append(errs, fmt.Errorf("%s: interact.action must be click, fill, or type", path))
		}
	case StepExtract:
		// no required fields
	case StepWait:
		switch s.Condition {
		case WaitNetworkIdle, WaitTimeout, WaitSelector:
		default:
			errs = append(errs, fmt.Errorf("%s: wait.condition must be networkidle, timeout, or selector", path))
		}
		if s.Condition == WaitSelector && s.Selector == "" {
			errs = append(errs, fmt.Errorf("%s: wait with condition=selector requires selector", path))
		}
		if s.TimeoutMs < 0 {
			errs = append(errs, fmt.Errorf("%s: wait.timeoutMs must be positive", path))
		}
	case StepScreenshot:
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("%s: screenshot requires path", path))
		}
	case StepSetVariable:
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s: setVariable requires name", path))
		}
		if s.Value == "" && s.FromEval == "" {
			errs = append(errs, fmt.Errorf("%s: setVariable requires value or fromEval", path))
		}
	case StepIf:
		if s.ConditionExpr == "" {
			errs = append(errs, fmt.Errorf("%s: if requires condition_expr", path))
		}
		errs = append(errs, validateSteps(s.Then, path+".then")...)
		errs = append(errs, validateSteps(s.Else, path+".else")...)
	case StepLoop:
		if s.Over == "" && s.Times <= 0 {
			errs = append(errs, fmt.Errorf("%s: loop requires over or a positive times", path))
		}
		if s.MaxIterations < 0 {
			errs = append(errs, fmt.Errorf("%s: loop.maxIterations must be positive", path))
		}
		errs = append(errs, validateSteps(s.Body, path+".body")...)
	default:
		errs = append(errs, fmt.Errorf("%s: unknown step type %q", path, s.Type))
	}
	return errs
}
