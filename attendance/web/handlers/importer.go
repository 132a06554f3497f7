package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	atcore "tadbeer.com/hrms/attendance/core"
	"tadbeer.com/hrms/attendance/device"
	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/config"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/infrastructure/filesystem"
	"tadbeer.com/hrms/pkg/logger"
	"tadbeer.com/hrms/web/common"

	"go.uber.org/zap"
)

type importResponse struct {
	Message string `json:"message"`
	Events  int    `json:"events"`
	*atcore.Result
}

// ImportPunchSheetHandler ingests a CSV/XLSX punch sheet through the same
// reconciler the device sync uses, with source=manual. The sheet is
// archived to S3 when a bucket is configured.
func ImportPunchSheetHandler(dm *core.DatabaseManager, policy atcore.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("missing file"))
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
			return
		}

		var events []device.RawEvent
		switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
		case ".csv":
			events, err = atcore.ParsePunchCSV(bytes.NewReader(data))
		case ".xlsx":
			events, err = atcore.ParsePunchXLSX(bytes.NewReader(data))
		default:
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("unsupported file type, expected .csv or .xlsx"))
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
			return
		}

		var result *atcore.Result
		if err := dm.Transaction(c.Request.Context(), func(tx *gorm.DB) error {
			if err := atcore.LogPunches(tx, nil, events, model.PunchOriginImport, policy); err != nil {
				return err
			}
			var rerr error
			result, rerr = atcore.Reconcile(tx, events, model.AttendanceSourceManual, policy)
			return rerr
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		if bucket := config.Cfg.ArchiveBucket; bucket != "" {
			key := fmt.Sprintf("punch-sheets/%s-%s", time.Now().Format("20060102T150405"), fileHeader.Filename)
			if err := filesystem.WriteFile(bucket, key, c.Request.Context(), data); err != nil {
				logger.Logger.Warn("failed to archive punch sheet", zap.String("key", key), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, importResponse{
			Message: fmt.Sprintf("imported %d punches", len(events)),
			Events:  len(events),
			Result:  result,
		})
	}
}
