package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

func TestCreateGroup(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.login("s1", "c1", "owner@example.com")
	h.connect("s1", "c2")

	effects := h.send("s1", "c1", protocol.CreateGroup{
		Name:        "  Run Club ",
		Description: "Weekly runs",
		Visibility:  "public",
	})
	assert.Equal(t, []model.ConnectionID{"c1", "c2"}, recipients(effects))
	resp := onlyMessage[protocol.CreateGroupResponse](t, effects)
	require.True(t, resp.Result.IsOk())
	assert.Equal(t, "Run Club", resp.Result.Ok.Name)
	assert.Equal(t, owner.ID, resp.Result.Ok.OwnerID)
	require.Len(t, resp.Result.Ok.Members, 1)
	assert.Equal(t, owner.ID, resp.Result.Ok.Members[0].ID)
}

func TestCreateGroup_NameInUse(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("s1", "c1", "owner@example.com")
	h.login("s2", "c2", "other@example.com")
	h.createGroup("s1", "c1", "Run Club")

	effects := h.send("s2", "c2", protocol.CreateGroup{Name: "run club", Visibility: "public"})
	assert.Equal(t, []model.ConnectionID{"c2"}, recipients(effects))
	resp := onlyMessage[protocol.CreateGroupResponse](t, effects)
	assert.Equal(t, protocol.CodeGroupNameAlreadyInUse, resp.Result.Err.Code)
	assert.Len(t, h.b.State().Groups, 1)
}

func TestGetGroup(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("s1", "c1", "owner@example.com")
	g := h.createGroup("s1", "c1", "Run Club")
	h.connect("anon", "c9")

	resp := onlyMessage[protocol.GetGroupResponse](t, h.send("anon", "c9", protocol.GetGroup{GroupID: g.ID}))
	require.True(t, resp.Result.IsOk())
	assert.Equal(t, g.ID, resp.Result.Ok.ID)

	resp = onlyMessage[protocol.GetGroupResponse](t, h.send("anon", "c9", protocol.GetGroup{GroupID: "nope"}))
	assert.Equal(t, protocol.CodeGroupNotFound, resp.Result.Err.Code)
}

func TestSearchGroups(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("s1", "c1", "owner@example.com")
	h.createGroup("s1", "c1", "Run Club")
	h.createGroup("s1", "c1", "Chess Club")
	hidden := h.createGroup("s1", "c1", "Secret Runners")
	h.send("s1", "c1", protocol.ChangeGroupVisibility{GroupID: hidden.ID, Visibility: "unlisted"})
	h.connect("anon", "c9")

	resp := onlyMessage[protocol.SearchGroupsResponse](t, h.send("anon", "c9", protocol.SearchGroups{Text: "RUN"}))
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Run Club", resp.Groups[0].Name)
	assert.False(t, resp.Groups[0].Owned)

	resp = onlyMessage[protocol.SearchGroupsResponse](t, h.send("anon", "c9", protocol.SearchGroups{}))
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "Chess Club", resp.Groups[0].Name)

	mine := onlyMessage[protocol.SearchGroupsResponse](t, h.send("s1", "c1", protocol.SearchGroups{Text: "club"}))
	require.Len(t, mine.Groups, 2)
	assert.True(t, mine.Groups[0].Owned)
}

func TestGetMyGroups(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	ada := h.login("s1", "c1", "ada@example.com")
	club := h.createGroup("so", "co", "Run Club")
	h.createGroup("so", "co", "Chess Club")
	mine := h.createGroup("s1", "c1", "Book Club")
	e := h.createEvent("so", "co", club.ID, "5k", h.now.Add(48*time.Hour), 60, nil)
	h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID})

	resp := onlyMessage[protocol.GetMyGroupsResponse](t, h.send("s1", "c1", protocol.GetMyGroups{}))
	assert.Equal(t, ada.ID, resp.UserID)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, mine.ID, resp.Groups[0].ID)
	assert.True(t, resp.Groups[0].Owned)
	assert.Equal(t, club.ID, resp.Groups[1].ID)
	assert.Equal(t, 1, resp.Groups[1].UpcomingEvents)
}

func TestGroupChanges_OwnerOrAdmin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("s1", "c1", "ada@example.com")
	h.login("sa", "ca", adminEmail)
	g := h.createGroup("so", "co", "Run Club")

	// A stranger is rejected silently.
	assert.Empty(t, h.send("s1", "c1", protocol.ChangeGroupName{GroupID: g.ID, Name: "Mine"}))
	assert.Equal(t, []model.LogKind{model.LogUntrustedCheckFailed}, h.logKinds())

	// An admin edit reaches the admin and the owner.
	effects := h.send("sa", "ca", protocol.ChangeGroupName{GroupID: g.ID, Name: "Running Club"})
	assert.Equal(t, []model.ConnectionID{"ca", "co"}, recipients(effects))
	resp := onlyMessage[protocol.ChangeGroupNameResponse](t, effects)
	assert.Equal(t, "Running Club", *resp.Result.Ok)

	// The owner's own edit only reaches the owner.
	effects = h.send("so", "co", protocol.ChangeGroupDescription{GroupID: g.ID, Description: "Fast"})
	assert.Equal(t, []model.ConnectionID{"co"}, recipients(effects))

	stored, _ := h.b.State().Group(g.ID)
	assert.Equal(t, "Running Club", stored.Name)
	assert.Equal(t, "Fast", stored.Description)
}

func TestChangeGroupName_Results(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	g := h.createGroup("so", "co", "Run Club")
	h.createGroup("so", "co", "Chess Club")

	resp := onlyMessage[protocol.ChangeGroupNameResponse](t, h.send("so", "co", protocol.ChangeGroupName{GroupID: g.ID, Name: "CHESS CLUB"}))
	assert.Equal(t, protocol.CodeGroupNameAlreadyInUse, resp.Result.Err.Code)

	resp = onlyMessage[protocol.ChangeGroupNameResponse](t, h.send("so", "co", protocol.ChangeGroupName{GroupID: "nope", Name: "x"}))
	assert.Equal(t, protocol.CodeGroupNotFound, resp.Result.Err.Code)

	// Renaming to a different case of its own name is fine.
	resp = onlyMessage[protocol.ChangeGroupNameResponse](t, h.send("so", "co", protocol.ChangeGroupName{GroupID: g.ID, Name: "run club"}))
	assert.True(t, resp.Result.IsOk())
}

func TestAdminDeleteGroup_SoftDeletes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("sa", "ca", adminEmail)
	h.login("sb", "cb", "bob@example.com")
	g := h.createGroup("so", "co", "Run Club")
	ev := h.createEvent("so", "co", g.ID, "5k", h.now.Add(48*time.Hour), 60, nil)
	h.send("sb", "cb", protocol.JoinEvent{GroupID: g.ID, EventID: ev.ID})

	search := onlyMessage[protocol.SearchGroupsResponse](t, h.send("sb", "cb", protocol.SearchGroups{Text: "run"}))
	assert.Equal(t, []model.GroupID{g.ID}, groupIDs(search.Groups))
	mine := onlyMessage[protocol.GetMyGroupsResponse](t, h.send("sb", "cb", protocol.GetMyGroups{}))
	assert.Equal(t, []model.GroupID{g.ID}, groupIDs(mine.Groups))

	assert.Empty(t, h.send("so", "co", protocol.AdminDeleteGroup{GroupID: g.ID}))

	effects := h.send("sa", "ca", protocol.AdminDeleteGroup{GroupID: g.ID})
	assert.Equal(t, []model.ConnectionID{"ca", "co"}, recipients(effects))
	resp := onlyMessage[protocol.AdminDeleteGroupResponse](t, effects)
	assert.Equal(t, g.ID, *resp.Result.Ok)

	_, active := h.b.State().Group(g.ID)
	assert.False(t, active)
	archived := h.b.State().ArchivedGroups[g.ID]
	assert.Equal(t, ArchivedByAdmin, archived.Reason)
	assert.Len(t, archived.Group.Events, 1)

	// Gone from search and from both the owner's and the attendee's lists.
	search = onlyMessage[protocol.SearchGroupsResponse](t, h.send("sb", "cb", protocol.SearchGroups{Text: "run"}))
	assert.Empty(t, search.Groups)
	for _, sc := range [][2]string{{"so", "co"}, {"sb", "cb"}} {
		mine = onlyMessage[protocol.GetMyGroupsResponse](t, h.send(sc[0], sc[1], protocol.GetMyGroups{}))
		assert.Empty(t, mine.Groups, sc[0])
	}

	// The name is free again, the id is not reused.
	again := h.createGroup("so", "co", "Run Club")
	assert.NotEqual(t, g.ID, again.ID)

	resp = onlyMessage[protocol.AdminDeleteGroupResponse](t, h.send("sa", "ca", protocol.AdminDeleteGroup{GroupID: g.ID}))
	assert.Equal(t, protocol.CodeGroupNotFound, resp.Result.Err.Code)
}
