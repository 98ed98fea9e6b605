package service

import (
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// adminDeleteGroup archives a group. Its data stays in the archive table.
func (b *Backend) adminDeleteGroup(rc *requestContext, req protocol.AdminDeleteGroup) []Effect {
	admin, ok := b.requireAdmin(rc)
	if !ok {
		return nil
	}
	g, found := b.state.archiveGroup(req.GroupID, ArchivedByAdmin, rc.now)
	if !found {
		return b.reply(rc, protocol.AdminDeleteGroupResponse{
			GroupID: req.GroupID,
			Result:  protocol.Fail[model.GroupID](model.ErrGroupNotFound),
		})
	}
	return b.toUsers(rc, protocol.AdminDeleteGroupResponse{
		GroupID: g.ID,
		Result:  protocol.Ok(g.ID),
	}, groupAudience(admin, g)...)
}

// adminGetLogs returns a copy of the log, oldest entry first
func (b *Backend) adminGetLogs(rc *requestContext) []Effect {
	if _, ok := b.requireAdmin(rc); !ok {
		return nil
	}
	entries := make([]model.LogEntry, len(b.state.Log))
	copy(entries, b.state.Log)
	return b.reply(rc, protocol.AdminGetLogsResponse{Entries: entries})
}
