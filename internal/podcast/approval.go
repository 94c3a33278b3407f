package podcast

// InvalidatesApprovals reports whether an edit of the given category voids
// previously recorded approvals. Every category that touches content the
// sign-off was based on (segments, voices, source documents, prompt
// instructions) clears approvals; metadata-only edits never do.
func InvalidatesApprovals(c EditCategory) bool {
	return c != EditMetadata
}
