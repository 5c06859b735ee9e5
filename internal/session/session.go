package session

import "sync"

// Session is the bot-side login of one Telegram user.
type Session struct {
	PanelistID    string
	PanelistName  string
	HackathonID   string
	HackathonName string
}

func (s Session) LoggedIn() bool {
	return s.PanelistID != ""
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]Session),
	}
}

// Get returns a copy of the user's session, the zero Session when there is none.
func (m *Manager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[userID]
}

func (m *Manager) Set(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = s
}

func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}
