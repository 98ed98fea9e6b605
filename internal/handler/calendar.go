package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/service"
)

// StateReader runs a read-only closure on the processing loop
type StateReader interface {
	Read(ctx context.Context, fn func(*service.State)) error
}

// CalendarHandler exports a group's events as iCalendar
type CalendarHandler struct {
	reader   StateReader
	siteName string
	baseURL  string
	clock    func() time.Time
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(reader StateReader, siteName, baseURL string) *CalendarHandler {
	return &CalendarHandler{
		reader:   reader,
		siteName: siteName,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clock:    time.Now,
	}
}

// Export handles GET /v1/groups/{groupId}/calendar.ics
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	groupID := model.GroupID(r.PathValue("groupId"))
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	var (
		group model.Group
		found bool
	)
	err := h.reader.Read(r.Context(), func(s *service.State) {
		if g, ok := s.Group(groupID); ok {
			group, found = g.Clone(), true
		}
	})
	if err != nil {
		slog.Error("calendar read failed",
			slog.String("group_id", string(groupID)),
			slog.String("error", err.Error()),
		)
		WriteError(w, model.NewServiceUnavailableError("backend is not available"))
		return
	}
	if !found {
		WriteError(w, MapDomainError(model.ErrGroupNotFound))
		return
	}

	cal := BuildCalendar(group, h.siteName, h.baseURL, h.clock())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, group.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, cal.Serialize())
}

// BuildCalendar renders every event of g, cancelled ones marked CANCELLED
func BuildCalendar(g model.Group, siteName, baseURL string, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(fmt.Sprintf("-//%s//Group Calendar//EN", siteName))
	cal.SetName(g.Name)
	if g.Description != "" {
		cal.SetDescription(g.Description)
	}

	for _, e := range g.SortedEvents() {
		ev := cal.AddEvent(fmt.Sprintf("%s-%d@%s", g.ID, e.ID, strings.ToLower(siteName)))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetCreatedTime(e.CreatedOn.UTC())
		ev.SetStartAt(e.StartTime.UTC())
		ev.SetEndAt(e.EndTime().UTC())
		ev.SetSummary(e.Name)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}

		link := fmt.Sprintf("%s/group/%s#event-%d", baseURL, g.ID, e.ID)
		switch e.Type.Kind {
		case model.EventKindOnline:
			if e.Type.MeetingLink != "" {
				ev.SetLocation(e.Type.MeetingLink)
				link = e.Type.MeetingLink
			}
		case model.EventKindInPerson:
			if e.Type.Address != "" {
				ev.SetLocation(e.Type.Address)
			}
		}
		ev.SetURL(link)

		if e.IsCancelled() {
			ev.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return cal
}
