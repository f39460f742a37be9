package handlers

import (
	"sync"

	"invite-studio/internal/studio/editor"
	"invite-studio/internal/studio/models"
)

// ============================================================
// Workspace
// ============================================================

// Workspace holds the open editor sessions, one per (user, project). Every
// call against a session runs under that session's lock.
type Workspace struct {
	mu       sync.Mutex
	ids      editor.IDSource
	sessions map[sessionKey]*ProjectSession
}

type sessionKey struct {
	user    string
	project string
}

type ProjectSession struct {
	mu      sync.Mutex
	session *editor.Session
}

func NewWorkspace(ids editor.IDSource) *Workspace {
	return &Workspace{
		ids:      ids,
		sessions: make(map[sessionKey]*ProjectSession),
	}
}

// Open returns the session for (user, project), creating it from load on
// first use.
func (w *Workspace) Open(user, project string, load func() (models.Project, error)) (*ProjectSession, bool, error) {
	key := sessionKey{user, project}

	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.sessions[key]; ok {
		return s, false, nil
	}

	p, err := load()
	if err != nil {
		return nil, false, err
	}
	s := &ProjectSession{session: editor.NewSession(p, w.ids)}
	w.sessions[key] = s
	return s, true, nil
}

// With runs fn while holding the session lock.
func (s *ProjectSession) With(fn func(*editor.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.session)
}

// Close drops a session from the workspace. Unsaved edits are lost.
func (w *Workspace) Close(user, project string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := sessionKey{user, project}
	_, ok := w.sessions[key]
	delete(w.sessions, key)
	return ok
}

// OpenProjects lists the projects the user has open.
func (w *Workspace) OpenProjects(user string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := []string{}
	for key := range w.sessions {
		if key.user == user {
			out = append(out, key.project)
		}
	}
	return out
}
