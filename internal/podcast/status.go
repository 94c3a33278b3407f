// Package podcast holds the generation workflow core: the version status
// machine, the edit classifier, the approval invalidation rule and the
// domain error kinds. Everything here is pure; persistence and external
// services live elsewhere.
package podcast

// Status is the generation stage of a podcast version.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusScriptReady     Status = "script_ready"
	StatusGeneratingAudio Status = "generating_audio"
	StatusReady           Status = "ready"
	StatusFailed          Status = "failed"
)

// GenerationStep is one unit of work the worker can run for a podcast.
type GenerationStep string

const (
	StepGenerateScript GenerationStep = "generate-script"
	StepGenerateAudio  GenerationStep = "generate-audio"
)

// position returns the index of a status in the linear happy path
// draft -> script_ready -> ready. The generating and failed states have
// no position; no step list can be computed from them.
func (s Status) position() (int, bool) {
	switch s {
	case StatusDraft:
		return 0, true
	case StatusScriptReady:
		return 1, true
	case StatusReady:
		return 2, true
	}
	return 0, false
}

// Valid reports whether s is a member of the status enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScriptReady, StatusGeneratingAudio, StatusReady, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether a version in this status can never progress
// without a new version being created.
func (s Status) Terminal() bool { return s == StatusFailed }

// NextStatusForEdit returns the status a podcast falls back to after an
// edit of the given category. ok is false for metadata-only edits, which
// change neither status nor version.
func NextStatusForEdit(c EditCategory) (next Status, ok bool) {
	switch c {
	case EditPromptOrDocs:
		// Source material or creative instructions changed: the script
		// itself is stale.
		return StatusDraft, true
	case EditVoice, EditSegments:
		// Script is still valid, only the audio is stale.
		return StatusScriptReady, true
	}
	return "", false
}

// StepsToReach returns the ordered generation steps required to move a
// version from current to target. It returns nil when current is failed or
// generating_audio (regeneration from those states needs an explicit new
// attempt) and when current is already at or past target.
func StepsToReach(current, target Status) []GenerationStep {
	cur, ok := current.position()
	if !ok {
		return nil
	}
	tgt, ok := target.position()
	if !ok {
		return nil
	}
	if cur >= tgt {
		return nil
	}
	var steps []GenerationStep
	if cur < 1 && tgt >= 1 {
		steps = append(steps, StepGenerateScript)
	}
	if cur < 2 && tgt >= 2 {
		steps = append(steps, StepGenerateAudio)
	}
	return steps
}

// IsValidTransition reports whether a version may move from one status to
// another in place. Any non-terminal status may fail; forward moves follow
// the linear order with generating_audio between script_ready and ready.
// Backward moves are never in-place transitions, they happen by creating a
// new version.
func IsValidTransition(from, to Status) bool {
	if from == StatusFailed {
		return false
	}
	if to == StatusFailed {
		return true
	}
	switch from {
	case StatusDraft:
		return to == StatusScriptReady
	case StatusScriptReady:
		return to == StatusGeneratingAudio
	case StatusGeneratingAudio:
		return to == StatusReady
	}
	return false
}
