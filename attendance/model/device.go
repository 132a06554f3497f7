package model

import "time"

const (
	ProviderZKTeco = "zkteco"
	ProviderADMS   = "adms"
)

const (
	DeviceStatusOnline  = "online"
	DeviceStatusOffline = "offline"
	DeviceStatusError   = "error"
)

// Device is one registered biometric terminal. Administrators own the
// row; the sync orchestrator only touches Status, LastSyncAt and
// LastEventAt.
type Device struct {
	ID       int32  `gorm:"primaryKey;column:id" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	IP       string `gorm:"size:45;not null;uniqueIndex;column:ip_address" json:"ip"`
	Port     int    `gorm:"default:4370" json:"port"`
	Provider string `gorm:"size:20;not null;default:zkteco" json:"provider"`

	// CommKey is the terminal communication password (0 = none).
	CommKey  int     `gorm:"default:0" json:"commKey"`
	Username *string `gorm:"size:50" json:"username"`
	Password *string `gorm:"size:100" json:"-"`

	LocationID *int32 `json:"locationId"`

	Status     string     `gorm:"size:10;default:offline" json:"status"`
	LastSyncAt *time.Time `json:"lastSyncAt"`

	// LastEventAt is the ingestion watermark: the latest punch timestamp
	// already reconciled from this terminal. Bounds reprocessing only;
	// the ledger upsert stays idempotent regardless.
	LastEventAt *time.Time `json:"lastEventAt"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;autoUpdateTime" json:"updatedAt"`
}

func (Device) TableName() string {
	return "attendance_devices"
}
