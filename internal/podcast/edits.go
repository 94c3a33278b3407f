package podcast

// EditFlags records which field groups changed in a podcast update.
type EditFlags struct {
	Segments           bool
	HostVoice          bool
	CohostVoice        bool
	PromptInstructions bool
	SourceDocuments    bool
	Title              bool
	Description        bool
	Tags               bool
}

// Any reports whether at least one field group changed.
func (f EditFlags) Any() bool {
	return f.Segments || f.HostVoice || f.CohostVoice || f.PromptInstructions ||
		f.SourceDocuments || f.Title || f.Description || f.Tags
}

// EditCategory classifies an edit by how much downstream work it
// invalidates.
type EditCategory string

const (
	EditPromptOrDocs EditCategory = "prompt_or_docs"
	EditVoice        EditCategory = "voice"
	EditSegments     EditCategory = "segments"
	EditMetadata     EditCategory = "metadata"
)

// ClassifyEdit maps changed-field flags to exactly one category.
// Priority: prompt/docs changes outrank voice changes outrank segment
// changes; anything else, including no change at all, is metadata.
func ClassifyEdit(f EditFlags) EditCategory {
	switch {
	case f.PromptInstructions || f.SourceDocuments:
		return EditPromptOrDocs
	case f.HostVoice || f.CohostVoice:
		return EditVoice
	case f.Segments:
		return EditSegments
	}
	return EditMetadata
}
