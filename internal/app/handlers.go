package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"icetime-service/internal/export"
	"icetime-service/internal/notify"
	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

const overviewRecent = 5

// dateParam reads a yyyy-mm-dd path parameter; "today" resolves to the
// current date in the rink's zone.
func (a *App) dateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Param(name)
	if raw == "" || raw == "today" {
		return a.today(), true
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		badRequest(c, "invalid "+name+", want yyyy-mm-dd")
		return time.Time{}, false
	}
	return d, true
}

// GET /api/weeks/:date
func (a *App) GetWeekHandler(c *gin.Context) {
	date, ok := a.dateParam(c, "date")
	if !ok {
		return
	}
	view, err := a.LoadWeek(c.Request.Context(), date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWeekResponse(view))
}

// GET /api/overview and /api/overview/:date
func (a *App) OverviewHandler(c *gin.Context) {
	date, ok := a.dateParam(c, "date")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	view, err := a.LoadWeek(ctx, date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	list, err := a.Teams.ListTeams(ctx)
	if err != nil {
		a.writeError(c, schedule.Failed("list teams", err))
		return
	}
	recent := []notify.Toast{}
	if a.Feed != nil {
		recent = a.Feed.Recent(overviewRecent)
	}
	c.JSON(http.StatusOK, OverviewResponse{
		WeekStart: view.Week().String(),
		Teams:     len(list),
		Summary:   view.Summary(),
		Recent:    recent,
	})
}

// GET /api/weeks/:date/navigate?direction=prev|next
func (a *App) NavigateWeekHandler(c *gin.Context) {
	date, ok := a.dateParam(c, "date")
	if !ok {
		return
	}
	dir, err := schedule.ParseDirection(c.Query("direction"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	week, _ := schedule.WeekOf(date).Navigate(dir)
	view, err := a.LoadWeek(c.Request.Context(), week.Start)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWeekResponse(view))
}

// GET /api/days/:date
func (a *App) GetDayHandler(c *gin.Context) {
	date, ok := a.dateParam(c, "date")
	if !ok {
		return
	}
	view, err := a.LoadWeek(c.Request.Context(), date)
	if err != nil {
		a.writeError(c, err)
		return
	}
	slots := view.SlotsForDay(date)
	c.JSON(http.StatusOK, gin.H{
		"date":  schedule.FormatDate(date),
		"slots": slots,
		"count": len(slots),
	})
}

// POST /api/slots
func (a *App) CreateSlotHandler(c *gin.Context) {
	var req createSlotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	slot, err := a.CreateSlot(c.Request.Context(), schedule.IceSlot{
		ID:        req.ID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Type:      schedule.SlotType(req.Type),
		Rink:      req.Rink,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// GET /api/slots/:id
func (a *App) GetSlotHandler(c *gin.Context) {
	slot, err := a.Backend.GetSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// POST /api/slots/:id/assign
func (a *App) AssignSlotHandler(c *gin.Context) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	slot, err := a.AssignSlot(c.Request.Context(), c.Param("id"), req.TeamID, req.Version)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// POST /api/slots/:id/unassign
func (a *App) UnassignSlotHandler(c *gin.Context) {
	var req unassignReq
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	slot, err := a.UnassignSlot(c.Request.Context(), c.Param("id"), req.Version)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// GET /api/teams
func (a *App) ListTeamsHandler(c *gin.Context) {
	list, err := a.Teams.ListTeams(c.Request.Context())
	if err != nil {
		a.writeError(c, schedule.Failed("list teams", err))
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/teams
func (a *App) CreateTeamHandler(c *gin.Context) {
	var req createTeamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	team, err := a.CreateTeam(c.Request.Context(), teams.Team{
		Name:         req.Name,
		ManagerName:  req.ManagerName,
		ManagerEmail: req.ManagerEmail,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// GET /api/teams/:id
func (a *App) GetTeamHandler(c *gin.Context) {
	team, err := a.Teams.ResolveTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// GET /api/teams/:id/schedule?period=current-week&from=&to=
func (a *App) TeamScheduleHandler(c *gin.Context) {
	preview, err := a.Exports.Preview(c.Request.Context(), export.Request{
		TeamID: c.Param("id"),
		Period: export.Period(c.DefaultQuery("period", string(export.CurrentWeek))),
		From:   c.Query("from"),
		To:     c.Query("to"),
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// POST /api/exports
func (a *App) StartExportHandler(c *gin.Context) {
	var req export.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := a.Exports.StartExport(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, task)
}

// POST /api/exports/email
func (a *App) StartEmailHandler(c *gin.Context) {
	var req export.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := a.Exports.StartEmail(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, task)
}

// POST /api/exports/email-all
func (a *App) StartEmailAllHandler(c *gin.Context) {
	var req export.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := a.Exports.StartEmailAll(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, task)
}

// GET /api/exports/:id
func (a *App) GetTaskHandler(c *gin.Context) {
	task, ok := a.Exports.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found", "code": CodeNotFound})
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /api/notifications?limit=n
func (a *App) ListNotificationsHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	if a.Feed == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, a.Feed.Recent(limit))
}

// POST /api/sync
func (a *App) RunSyncHandler(c *gin.Context) {
	if a.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rink sync disabled", "code": CodeUnavailable})
		return
	}
	res, err := a.Sync.RunOnce(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/sync
func (a *App) SyncStatusHandler(c *gin.Context) {
	if a.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rink sync disabled", "code": CodeUnavailable})
		return
	}
	c.JSON(http.StatusOK, a.Sync.Last())
}
