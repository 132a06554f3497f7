package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	atcore "tadbeer.com/hrms/attendance/core"
	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/cache"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/infrastructure/communication"
	"tadbeer.com/hrms/web/common"
)

const syncLockKey = "attendance:sync"
const syncLockTTL = 5 * time.Minute

type syncResponse struct {
	Message string `json:"message"`
	*atcore.Summary
}

// SyncAllHandler is the administrative "sync all devices" action. The
// caller always gets a structured summary; device failures degrade to
// error entries, never a bare 500.
func SyncAllHandler(dm *core.DatabaseManager, orch *atcore.Orchestrator, notifier *communication.Slack) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		locked, err := cache.TryLock(ctx, syncLockKey, syncLockTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}
		if !locked {
			c.JSON(http.StatusConflict, common.NewErrorResponse("a sync is already running"))
			return
		}
		defer func() {
			// release with a fresh context so a cancelled request still unlocks
			_ = cache.Unlock(context.Background(), syncLockKey)
		}()

		var summary *atcore.Summary
		if err := dm.Exec(ctx, func(db *gorm.DB) error {
			var serr error
			summary, serr = orch.SyncAll(ctx, db)
			return serr
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		status := http.StatusOK
		message := fmt.Sprintf("synced %d new and %d updated records from %d devices",
			summary.NewRecords, summary.UpdatedRecords, summary.DevicesTried)

		switch {
		case summary.DevicesTried == 0:
			message = "no devices registered"
		case summary.AllFailed():
			status = http.StatusBadGateway
			message = "all devices failed to sync"
			notify(notifier, summary, message)
		case summary.Partial():
			status = http.StatusMultiStatus
			message = fmt.Sprintf("synced with some problems: %d of %d devices failed",
				len(summary.Errors), summary.DevicesTried)
			notify(notifier, summary, message)
		case summary.NothingToSync():
			message = "no new records to sync from any device"
		}

		c.JSON(status, syncResponse{Message: message, Summary: summary})
	}
}

func notify(notifier *communication.Slack, summary *atcore.Summary, message string) {
	if notifier == nil {
		return
	}
	text := fmt.Sprintf("attendance sync: %s (new=%d updated=%d dropped=%d)",
		message, summary.NewRecords, summary.UpdatedRecords, summary.DroppedEvents)
	for _, e := range summary.Errors {
		text += fmt.Sprintf("\n- %s: %s", e.Device, e.Message)
	}
	_ = notifier.Error(text)
}

type testConnectionDTO struct {
	IP       string  `json:"ip" binding:"required"`
	Port     int     `json:"port"`
	Provider string  `json:"provider"`
	CommKey  int     `json:"commKey"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type testConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnectionHandler is the connect-only health probe for a single
// terminal. It never touches the ledger.
func TestConnectionHandler(orch *atcore.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dto testConnectionDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}
		if dto.Port == 0 {
			dto.Port = 4370
		}
		if dto.Provider == "" {
			dto.Provider = model.ProviderZKTeco
		}

		d := model.Device{
			Name:     dto.IP,
			IP:       dto.IP,
			Port:     dto.Port,
			Provider: dto.Provider,
			CommKey:  dto.CommKey,
			Username: dto.Username,
			Password: dto.Password,
		}

		message, err := orch.TestDevice(c.Request.Context(), d)
		if err != nil {
			c.JSON(http.StatusOK, testConnectionResponse{Success: false, Message: err.Error()})
			return
		}
		c.JSON(http.StatusOK, testConnectionResponse{Success: true, Message: message})
	}
}
