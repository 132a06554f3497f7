package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tadbeer.com/hrms/attendance/model"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/web/common"
)

type deviceDTO struct {
	Name       string  `json:"name" binding:"required"`
	IP         string  `json:"ip" binding:"required"`
	Port       int     `json:"port"`
	Provider   string  `json:"provider"`
	CommKey    int     `json:"commKey"`
	Username   *string `json:"username"`
	Password   *string `json:"password"`
	LocationID *int32  `json:"locationId"`
}

func ListDevicesHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var devices []model.Device
		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			return db.Order("name").Find(&devices).Error
		}); err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, common.NewSuccessResponse(devices))
	}
}

func CreateDeviceHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dto deviceDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		d := model.Device{
			Name:       dto.Name,
			IP:         dto.IP,
			Port:       dto.Port,
			Provider:   dto.Provider,
			CommKey:    dto.CommKey,
			Username:   dto.Username,
			Password:   dto.Password,
			LocationID: dto.LocationID,
			Status:     model.DeviceStatusOffline,
		}
		if d.Port == 0 {
			d.Port = 4370
		}
		if d.Provider == "" {
			d.Provider = model.ProviderZKTeco
		}

		err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			var existing model.Device
			if err := db.Where("ip_address = ?", d.IP).First(&existing).Error; err == nil {
				return errDuplicateIP
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return db.Create(&d).Error
		})
		if errors.Is(err, errDuplicateIP) {
			c.JSON(http.StatusConflict, common.NewErrorResponsef("a device with IP %s already exists", d.IP))
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, common.NewSuccessResponse(d))
	}
}

var errDuplicateIP = errors.New("duplicate device ip")

type deviceUpdateDTO struct {
	Name       *string `json:"name,omitempty"`
	IP         *string `json:"ip,omitempty"`
	Port       *int    `json:"port,omitempty"`
	Provider   *string `json:"provider,omitempty"`
	CommKey    *int    `json:"commKey,omitempty"`
	Username   *string `json:"username,omitempty"`
	Password   *string `json:"password,omitempty"`
	LocationID *int32  `json:"locationId,omitempty"`
}

func UpdateDeviceHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid id"))
			return
		}

		var dto deviceUpdateDTO
		if err := c.ShouldBindJSON(&dto); err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
			return
		}

		updates := map[string]any{}
		if dto.Name != nil {
			updates["name"] = *dto.Name
		}
		if dto.IP != nil {
			updates["ip_address"] = *dto.IP
		}
		if dto.Port != nil {
			updates["port"] = *dto.Port
		}
		if dto.Provider != nil {
			updates["provider"] = *dto.Provider
		}
		if dto.CommKey != nil {
			updates["comm_key"] = *dto.CommKey
		}
		if dto.Username != nil {
			updates["username"] = *dto.Username
		}
		if dto.Password != nil {
			updates["password"] = *dto.Password
		}
		if dto.LocationID != nil {
			updates["location_id"] = *dto.LocationID
		}

		var d model.Device
		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			if err := db.First(&d, id).Error; err != nil {
				return err
			}
			if len(updates) == 0 {
				return nil
			}
			return db.Model(&d).Updates(updates).Error
		}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, common.NewErrorResponse("Device not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(d))
	}
}

func DeleteDeviceHandler(dm *core.DatabaseManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, common.NewErrorResponse("Invalid id"))
			return
		}

		if err := dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
			result := db.Delete(&model.Device{}, id)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil
		}); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, common.NewErrorResponse("Device not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{}))
	}
}
