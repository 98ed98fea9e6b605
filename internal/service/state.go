package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/session"
)

// ArchivedGroup is a group removed from the active table. Its data is kept.
type ArchivedGroup struct {
	Group      model.Group   `json:"group"`
	ArchivedOn time.Time     `json:"archived_on"`
	Reason     ArchiveReason `json:"reason"`
}

// ArchiveReason records why a group was archived
type ArchiveReason string

const (
	ArchivedByAdmin      ArchiveReason = "admin_deleted"
	ArchivedOwnerDeleted ArchiveReason = "owner_deleted"
)

// State is the whole authoritative backend state. Only the processing loop
// reads or writes it.
type State struct {
	Users          map[model.UserID]model.User     `json:"users"`
	Groups         map[model.GroupID]model.Group   `json:"groups"`
	ArchivedGroups map[model.GroupID]ArchivedGroup `json:"archived_groups"`
	Sessions       *session.Registry               `json:"sessions"`
	LoginTokens    map[string]LoginToken           `json:"login_tokens"`
	DeleteTokens   map[string]DeleteToken          `json:"delete_tokens"`
	LoginAttempts  map[model.SessionID]time.Time   `json:"login_attempts"`
	Log            []model.LogEntry                `json:"log"`
	IDs            model.IDGenerator               `json:"ids"`
	LastTick       *time.Time                      `json:"last_tick,omitempty"`
}

// NewState returns an empty state
func NewState() *State {
	s := &State{}
	s.ensure()
	return s
}

// ensure allocates any nil table, which happens after decoding old snapshots
func (s *State) ensure() {
	if s.Users == nil {
		s.Users = make(map[model.UserID]model.User)
	}
	if s.Groups == nil {
		s.Groups = make(map[model.GroupID]model.Group)
	}
	if s.ArchivedGroups == nil {
		s.ArchivedGroups = make(map[model.GroupID]ArchivedGroup)
	}
	if s.Sessions == nil {
		s.Sessions = session.NewRegistry()
	}
	if s.LoginTokens == nil {
		s.LoginTokens = make(map[string]LoginToken)
	}
	if s.DeleteTokens == nil {
		s.DeleteTokens = make(map[string]DeleteToken)
	}
	if s.LoginAttempts == nil {
		s.LoginAttempts = make(map[model.SessionID]time.Time)
	}
	for id, g := range s.Groups {
		if g.Events == nil {
			g.Events = make(map[model.EventID]model.Event)
			s.Groups[id] = g
		}
	}
}

// User looks up a user
func (s *State) User(id model.UserID) (model.User, bool) {
	u, ok := s.Users[id]
	return u, ok
}

// UserByEmail finds the account registered with email
func (s *State) UserByEmail(email model.EmailAddress) (model.User, bool) {
	for _, u := range s.Users {
		if u.Email == email {
			return u, true
		}
	}
	return model.User{}, false
}

// Group looks up an active group
func (s *State) Group(id model.GroupID) (model.Group, bool) {
	g, ok := s.Groups[id]
	return g, ok
}

// groupNameTaken reports whether another active group already uses name.
// Names compare case-insensitively.
func (s *State) groupNameTaken(name string, except model.GroupID) bool {
	for id, g := range s.Groups {
		if id != except && strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}

// SortedGroups returns the active groups ordered by name, then id
func (s *State) SortedGroups() []model.Group {
	out := make([]model.Group, 0, len(s.Groups))
	for _, g := range s.Groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].ID < out[j].ID
		}
		return a < b
	})
	return out
}

// archiveGroup moves a group out of the active table
func (s *State) archiveGroup(id model.GroupID, reason ArchiveReason, now time.Time) (model.Group, bool) {
	g, ok := s.Groups[id]
	if !ok {
		return model.Group{}, false
	}
	delete(s.Groups, id)
	s.ArchivedGroups[id] = ArchivedGroup{Group: g, ArchivedOn: now, Reason: reason}
	return g, true
}

// newUserID allocates an unused short user id
func (s *State) newUserID(now time.Time) model.UserID {
	return model.UserID(s.IDs.ShortID(now, func(id string) bool {
		_, taken := s.Users[model.UserID(id)]
		return taken
	}))
}

// newGroupID allocates a short group id never used by an active or
// archived group
func (s *State) newGroupID(now time.Time) model.GroupID {
	return model.GroupID(s.IDs.ShortID(now, func(id string) bool {
		_, active := s.Groups[model.GroupID(id)]
		_, archived := s.ArchivedGroups[model.GroupID(id)]
		return active || archived
	}))
}

func (s *State) appendLog(entry model.LogEntry) {
	s.Log = model.AppendLog(s.Log, entry)
}

// ============================================================================
// Snapshots
// ============================================================================

// SnapshotVersion is bumped whenever the State layout changes incompatibly
const SnapshotVersion = 1

// Snapshot is the serialised form of a State
type Snapshot struct {
	Version int             `json:"version"`
	TakenAt time.Time       `json:"taken_at"`
	State   json.RawMessage `json:"state"`
}

// MarshalSnapshot serialises the state. Live connections are not included.
func (s *State) MarshalSnapshot(now time.Time) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return json.Marshal(Snapshot{Version: SnapshotVersion, TakenAt: now, State: body})
}

// RestoreState decodes a snapshot written by MarshalSnapshot
func RestoreState(data []byte) (*State, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	s := &State{Sessions: session.NewRegistry()}
	if err := json.Unmarshal(snap.State, s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	s.ensure()
	return s, nil
}
