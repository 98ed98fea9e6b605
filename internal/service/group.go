package service

import (
	"strings"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// getGroup returns any active group by id. Unlisted groups are reachable
// through their id, they are only left out of search.
func (b *Backend) getGroup(rc *requestContext, req protocol.GetGroup) []Effect {
	resp := protocol.GetGroupResponse{GroupID: req.GroupID}
	if g, ok := b.state.Group(req.GroupID); ok {
		resp.Result = protocol.Ok(protocol.NewGroupView(g, b.lookupUser))
	} else {
		resp.Result = protocol.Fail[protocol.GroupView](model.ErrGroupNotFound)
	}
	return b.reply(rc, resp)
}

// searchGroups matches public groups whose name or description contains
// the text, ignoring case. Empty text lists every public group.
func (b *Backend) searchGroups(rc *requestContext, req protocol.SearchGroups) []Effect {
	text, err := model.ValidateSearchText(req.Text)
	if !b.validated(rc, err) {
		return nil
	}

	me, _ := b.currentUser(rc)
	needle := strings.ToLower(text)
	groups := []protocol.GroupSummary{}
	for _, g := range b.state.SortedGroups() {
		if g.Visibility != model.VisibilityPublic {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(g.Name), needle) &&
			!strings.Contains(strings.ToLower(g.Description), needle) {
			continue
		}
		groups = append(groups, protocol.NewGroupSummary(g, rc.now, me.ID != "" && g.OwnerID == me.ID))
	}
	return b.reply(rc, protocol.SearchGroupsResponse{Text: req.Text, Groups: groups})
}

// getMyGroups lists the groups the user owns or attends an event of
func (b *Backend) getMyGroups(rc *requestContext) []Effect {
	u, ok := b.requireUser(rc)
	if !ok {
		return nil
	}
	groups := []protocol.GroupSummary{}
	for _, g := range b.state.SortedGroups() {
		owned := g.OwnerID == u.ID
		if owned || g.HasAttendee(u.ID) {
			groups = append(groups, protocol.NewGroupSummary(g, rc.now, owned))
		}
	}
	return b.reply(rc, protocol.GetMyGroupsResponse{UserID: u.ID, Groups: groups})
}

func (b *Backend) createGroup(rc *requestContext, req protocol.CreateGroup) []Effect {
	u, ok := b.requireUser(rc)
	if !ok {
		return nil
	}
	name, err := model.ValidateGroupName(req.Name)
	if !b.validated(rc, err) {
		return nil
	}
	desc, err := model.ValidateGroupDescription(req.Description)
	if !b.validated(rc, err) {
		return nil
	}
	vis, err := model.ValidateVisibility(req.Visibility)
	if !b.validated(rc, err) {
		return nil
	}

	if b.state.groupNameTaken(name, "") {
		return b.reply(rc, protocol.CreateGroupResponse{
			Name:   name,
			Result: protocol.Fail[protocol.GroupView](model.ErrGroupNameAlreadyInUse),
		})
	}

	g := model.NewGroup(b.state.newGroupID(rc.now), u.ID, name, desc, vis, rc.now)
	b.state.Groups[g.ID] = g
	return b.toUsers(rc, protocol.CreateGroupResponse{
		Name:   name,
		Result: protocol.Ok(protocol.NewGroupView(g, b.lookupUser)),
	}, u.ID)
}

func (b *Backend) changeGroupName(rc *requestContext, req protocol.ChangeGroupName) []Effect {
	access, ok := b.requireOwnerOrAdmin(rc, req.GroupID)
	if !ok {
		return nil
	}
	name, err := model.ValidateGroupName(req.Name)
	if !b.validated(rc, err) {
		return nil
	}
	if !access.found {
		return b.reply(rc, protocol.ChangeGroupNameResponse{
			GroupID: req.GroupID,
			Result:  protocol.Fail[string](model.ErrGroupNotFound),
		})
	}
	if b.state.groupNameTaken(name, req.GroupID) {
		return b.reply(rc, protocol.ChangeGroupNameResponse{
			GroupID: req.GroupID,
			Result:  protocol.Fail[string](model.ErrGroupNameAlreadyInUse),
		})
	}

	g := access.group.Clone()
	g.Name = name
	b.state.Groups[g.ID] = g
	return b.toUsers(rc, protocol.ChangeGroupNameResponse{
		GroupID: g.ID,
		Result:  protocol.Ok(name),
	}, groupAudience(access.user, g)...)
}

// changeGroupDescription and changeGroupVisibility answer without a result,
// so a missing group is treated as a trust failure.
func (b *Backend) changeGroupDescription(rc *requestContext, req protocol.ChangeGroupDescription) []Effect {
	access, ok := b.requireOwnerOrAdmin(rc, req.GroupID)
	if !ok {
		return nil
	}
	if !access.found {
		b.untrusted(rc, model.ErrGroupNotFound)
		return nil
	}
	desc, err := model.ValidateGroupDescription(req.Description)
	if !b.validated(rc, err) {
		return nil
	}

	g := access.group.Clone()
	g.Description = desc
	b.state.Groups[g.ID] = g
	return b.toUsers(rc, protocol.ChangeGroupDescriptionResponse{
		GroupID:     g.ID,
		Description: desc,
	}, groupAudience(access.user, g)...)
}

func (b *Backend) changeGroupVisibility(rc *requestContext, req protocol.ChangeGroupVisibility) []Effect {
	access, ok := b.requireOwnerOrAdmin(rc, req.GroupID)
	if !ok {
		return nil
	}
	if !access.found {
		b.untrusted(rc, model.ErrGroupNotFound)
		return nil
	}
	vis, err := model.ValidateVisibility(req.Visibility)
	if !b.validated(rc, err) {
		return nil
	}

	g := access.group.Clone()
	g.Visibility = vis
	b.state.Groups[g.ID] = g
	return b.toUsers(rc, protocol.ChangeGroupVisibilityResponse{
		GroupID:    g.ID,
		Visibility: vis,
	}, groupAudience(access.user, g)...)
}
