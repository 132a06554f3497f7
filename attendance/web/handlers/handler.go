package handlers

import (
	"github.com/gin-gonic/gin"

	atcore "tadbeer.com/hrms/attendance/core"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/infrastructure/communication"
)

// Register mounts the attendance surface on an authenticated group.
func Register(r *gin.RouterGroup, dm *core.DatabaseManager, orch *atcore.Orchestrator, notifier *communication.Slack) {
	r.POST("/attendance/sync", SyncAllHandler(dm, orch, notifier))
	r.POST("/attendance/test-connection", TestConnectionHandler(orch))
	r.POST("/attendance/import", ImportPunchSheetHandler(dm, orch.Policy))

	r.GET("/attendance/days", ListDaysHandler(dm))
	r.POST("/attendance/days", CreateDayHandler(dm))
	r.PUT("/attendance/days/:id", UpdateDayHandler(dm))
	r.GET("/attendance/days/employee/:id", EmployeeHistoryHandler(dm))
	r.GET("/attendance/punches", ListPunchesHandler(dm))

	r.GET("/devices", ListDevicesHandler(dm))
	r.POST("/devices", CreateDeviceHandler(dm))
	r.PUT("/devices/:id", UpdateDeviceHandler(dm))
	r.DELETE("/devices/:id", DeleteDeviceHandler(dm))
}
