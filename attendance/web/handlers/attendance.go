package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/utils"
	"tadbeer.com/hrms/web/common"
)

type attendanceDayInfo struct {
	ID           int32      `json:"id"`
	EmployeeID   int32      `json:"employeeId"`
	EmployeeCode string     `json:"employeeCode"`
	FirstName    string     `json:"firstName"`
	Surname      string     `json:"surname"`
	Date         string     `json:"date"`
	CheckIn      *time.Time `json:"checkIn"`
	CheckOut     *time.Time `json:"checkOut"`
	Status       string     `json:"status"`
	Source       string     `json:"source"`
}

// ListDaysHandler returns the daily log for one date (default today).
// Read-only view over the ledger the reconciler maintains.
func ListDaysHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			date = utils.DateOf(time.Now())
		}

		var days []attendanceDayInfo
		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			return db.Table("attendance_days").
				Select(`
		attendance_days.id as id,
		attendance_days.employee_id as employee_id,
		employees.code as employee_code,
		employees.first_name as first_name,
		employees.surname as surname,
		attendance_days.date as date,
		attendance_days.check_in as check_in,
		attendance_days.check_out as check_out,
		attendance_days.status as status,
		attendance_days.source as source
	`).
				Joins("JOIN employees ON employees.employee_id = attendance_days.employee_id").
				Where("attendance_days.date = ?", date).
				Order("employees.code").
				Scan(&days).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(days))
	}
}

// EmployeeHistoryHandler returns one employee's ledger rows in a date
// range, newest first.
func EmployeeHistoryHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid id"))
			return
		}

		var days []model.AttendanceDay
		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			q := db.Where("employee_id = ?", employeeID)
			if from := c.Query("from"); from != "" {
				q = q.Where("date >= ?", from)
			}
			if to := c.Query("to"); to != "" {
				q = q.Where("date <= ?", to)
			}
			return q.Order("date DESC").Limit(366).Find(&days).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(days))
	}
}

type dayCreateDTO struct {
	EmployeeID int32                 `json:"employeeId" binding:"required"`
	Date       common.DateOnly       `json:"date" binding:"required"`
	CheckIn    *common.LocalDateTime `json:"checkIn"`
	CheckOut   *common.LocalDateTime `json:"checkOut"`
	Status     string                `json:"status"`
}

// CreateDayHandler records a manual attendance entry, e.g. for an
// employee whose terminal was down all day. Manual entries override:
// an existing row for the day is replaced, not widened.
func CreateDayHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dto dayCreateDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}
		if dto.CheckIn != nil && dto.CheckOut != nil && !dto.CheckOut.After(dto.CheckIn.Time) {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("checkOut must be after checkIn"))
			return
		}

		row := model.AttendanceDay{
			EmployeeID: dto.EmployeeID,
			Date:       dto.Date.Format("2006-01-02"),
			Status:     dto.Status,
			Source:     model.AttendanceSourceManual,
		}
		if dto.CheckIn != nil {
			row.CheckIn = utils.Ptr(dto.CheckIn.Time)
		}
		if dto.CheckOut != nil {
			row.CheckOut = utils.Ptr(dto.CheckOut.Time)
		}
		if row.Status == "" {
			row.Status = model.StatusPresent
		}

		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			if emp, err := core.FindEmployeeByID(db, dto.EmployeeID); err != nil {
				return err
			} else if emp == nil {
				return gorm.ErrRecordNotFound
			}
			return db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"check_in", "check_out", "status", "source"}),
			}).Create(&row).Error
		}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, common.NewErrorResponse("Employee not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, common.NewSuccessResponse(row))
	}
}

var errCheckOutBeforeCheckIn = errors.New("check-out not after check-in")

type dayUpdateDTO struct {
	CheckIn  *common.LocalDateTime `json:"checkIn,omitempty"`
	CheckOut *common.LocalDateTime `json:"checkOut,omitempty"`
	Status   *string               `json:"status,omitempty"`
}

// UpdateDayHandler corrects one ledger row in place and stamps it
// source=manual so a later device sync is recognizable as having widened
// a corrected day.
func UpdateDayHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid id"))
			return
		}

		var dto dayUpdateDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		updates := map[string]any{"source": model.AttendanceSourceManual}
		if dto.CheckIn != nil {
			updates["check_in"] = dto.CheckIn.Time
		}
		if dto.CheckOut != nil {
			updates["check_out"] = dto.CheckOut.Time
		}
		if dto.Status != nil {
			updates["status"] = *dto.Status
		}

		var row model.AttendanceDay
		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			if err := db.First(&row, id).Error; err != nil {
				return err
			}

			// validate the pair as it will be after the update
			checkIn, checkOut := row.CheckIn, row.CheckOut
			if dto.CheckIn != nil {
				checkIn = utils.Ptr(dto.CheckIn.Time)
			}
			if dto.CheckOut != nil {
				checkOut = utils.Ptr(dto.CheckOut.Time)
			}
			if checkIn != nil && checkOut != nil && !checkOut.After(*checkIn) {
				return errCheckOutBeforeCheckIn
			}

			return db.Model(&row).Updates(updates).Error
		}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, common.NewErrorResponse("Attendance record not found"))
				return
			}
			if errors.Is(err, errCheckOutBeforeCheckIn) {
				c.JSON(http.StatusBadRequest, common.NewErrorResponse("checkOut must be after checkIn"))
				return
			}
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(row))
	}
}

// ListPunchesHandler exposes the raw punch log for diagnostics and for
// manually linking retained unresolved punches.
func ListPunchesHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var punches []model.PunchEvent
		var total int64

		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			q := db.Model(&model.PunchEvent{})
			if deviceID := c.Query("device"); deviceID != "" {
				q = q.Where("device_id = ?", deviceID)
			}
			if date := c.Query("date"); date != "" {
				day := utils.MustParseDate(date)
				q = q.Where("timestamp >= ? AND timestamp < ?", day, day.AddDate(0, 0, 1))
			}
			if c.Query("unlinked") == "true" {
				q = q.Where("employee_id IS NULL")
			}
			if err := q.Count(&total).Error; err != nil {
				return err
			}
			return q.Order("timestamp DESC").Limit(1000).Find(&punches).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSearchResponse(punches, total))
	}
}
