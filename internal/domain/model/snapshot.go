package model

import "time"

// Credential is the process-wide commerce access token plus its expiry.
// It is shared read-mostly across all sessions; refresh races are tolerated
// because token issuance is idempotent (last writer wins).
type Credential struct {
	Token     string `json:"token,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix seconds
}

func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && c.ExpiresAt > now.Unix()
}

// MenuItem is one product button on a menu page.
type MenuItem struct {
	Name      string `json:"name"`
	ProductID string `json:"product_id"`
}

// MenuPage holds the products shown on one page plus wrap-around navigation.
type MenuPage struct {
	Number   int        `json:"number"`
	Items    []MenuItem `json:"items"`
	PrevPage int        `json:"prev_page"`
	NextPage int        `json:"next_page"`
}

// Menu is the paged product catalog cached in shared data. It is replaced
// wholesale on every refresh and read without coordination.
type Menu struct {
	Pages     map[int]MenuPage `json:"pages"`
	PageCount int              `json:"page_count"`
}

// Page returns the requested page, wrapping out-of-range numbers to page 1.
func (m *Menu) Page(n int) (MenuPage, bool) {
	if m == nil || m.PageCount == 0 {
		return MenuPage{}, false
	}
	if p, ok := m.Pages[n]; ok {
		return p, true
	}
	return m.Pages[1], true
}

// SharedData is the bot-wide portion of the snapshot.
type SharedData struct {
	Credential Credential `json:"credential"`
	Menu       *Menu      `json:"menu,omitempty"`
}

// Snapshot is the full persisted store contents: every session plus shared
// data and the auxiliary maps, serialized under a single store key.
type Snapshot struct {
	Shared        SharedData         `json:"shared_data"`
	Sessions      map[int64]*Session `json:"sessions"`
	Conversations map[string]string  `json:"conversations"`
	CallbackData  map[string]string  `json:"callback_data"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Sessions:      make(map[int64]*Session),
		Conversations: make(map[string]string),
		CallbackData:  make(map[string]string),
	}
}

// Session returns the session for a chat, creating a fresh one on first
// contact. New sessions start at the beginning of the flow on page 1.
func (s *Snapshot) Session(chatID int64) *Session {
	if s.Sessions == nil {
		s.Sessions = make(map[int64]*Session)
	}
	sess, ok := s.Sessions[chatID]
	if !ok {
		sess = &Session{State: StateStart, CurrentPage: 1}
		s.Sessions[chatID] = sess
	}
	return sess
}
