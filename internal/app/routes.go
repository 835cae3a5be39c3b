package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"icetime-service/internal/config"
)

// Router builds the HTTP routes. metricsHandler, when non-nil, is served at
// /metrics outside the auth group.
func (a *App) Router(auth config.AuthConfig, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.Logger, a.Metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api", AuthMiddleware(auth))
	{
		weeks := api.Group("/weeks")
		{
			weeks.GET("/:date", a.GetWeekHandler)
			weeks.GET("/:date/navigate", a.NavigateWeekHandler)
		}
		api.GET("/days/:date", a.GetDayHandler)
		api.GET("/overview", a.OverviewHandler)
		api.GET("/overview/:date", a.OverviewHandler)

		slots := api.Group("/slots")
		{
			slots.POST("", a.CreateSlotHandler)
			slots.GET("/:id", a.GetSlotHandler)
			slots.POST("/:id/assign", a.AssignSlotHandler)
			slots.POST("/:id/unassign", a.UnassignSlotHandler)
		}

		teams := api.Group("/teams")
		{
			teams.GET("", a.ListTeamsHandler)
			teams.POST("", a.CreateTeamHandler)
			teams.GET("/:id", a.GetTeamHandler)
			teams.GET("/:id/schedule", a.TeamScheduleHandler)
		}

		exports := api.Group("/exports")
		{
			exports.POST("", a.StartExportHandler)
			exports.POST("/email", a.StartEmailHandler)
			exports.POST("/email-all", a.StartEmailAllHandler)
			exports.GET("/:id", a.GetTaskHandler)
		}

		api.GET("/notifications", a.ListNotificationsHandler)
		api.GET("/sync", a.SyncStatusHandler)
		api.POST("/sync", a.RunSyncHandler)

		// Google Calendar integration routes
		calendar := api.Group("/calendar")
		{
			calendar.GET("/auth", a.GoogleAuthHandler)
			calendar.GET("/calendars", a.GetGoogleCalendarList)
			calendar.POST("/import", a.ImportGoogleWeekHandler)
		}
	}
	return router
}
