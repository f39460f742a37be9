package models

// ============================================================
// Media sources
// ============================================================

// Source is either Resolved (a URL or bundle path) or PendingUpload (a binary
// stored server-side that still has to be staged into an export).
type Source interface {
	isSource()
}

type Resolved struct {
	URL string
}

// PendingUpload identifies one uploaded binary object. Two fields holding the
// same ID refer to the same object.
type PendingUpload struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

func (Resolved) isSource()      {}
func (PendingUpload) isSource() {}

// SourceURL returns the URL of a resolved source and "" otherwise.
func SourceURL(s Source) string {
	if r, ok := s.(Resolved); ok {
		return r.URL
	}
	return ""
}

// Pending returns the upload handle when s still awaits export.
func Pending(s Source) (PendingUpload, bool) {
	u, ok := s.(PendingUpload)
	return u, ok
}
