package agent

import "errors"

var (
	// ErrPlanningFailed wraps any failure of the plan boundary, including
	// unparseable or schema-invalid model output. Fatal to the run.
	ErrPlanningFailed = errors.New("agent: planning failed")

	// ErrGenerationFailed wraps any failure of the content boundary for a
	// specific task. Fatal to the run (fail-fast).
	ErrGenerationFailed = errors.New("agent: content generation failed")

	// ErrFileVanished reports that a task's target file was removed or
	// renamed by a concurrent edit before the result could be applied.
	ErrFileVanished = errors.New("agent: target file vanished")

	// ErrRunActive is returned by StartRun while a run is planning or
	// executing.
	ErrRunActive = errors.New("agent: a run is already active")

	// ErrRunCancelled marks a run stopped by the caller.
	ErrRunCancelled = errors.New("agent: run cancelled")

	// ErrEmptyGoal rejects a blank instruction.
	ErrEmptyGoal = errors.New("agent: goal must not be empty")
)
