package models

import (
	"time"
)

// 注意：
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// Device 映射 devices 表：MQTT 传输下的物理身份与密钥材料。
type Device struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Serial          string    `gorm:"column:serial;type:text;not null;uniqueIndex"`
	TypeCode        *string   `gorm:"column:type_code;type:text"`
	EncryptedSecret []byte    `gorm:"column:encrypted_secret"`
	SecretAlgo      *string   `gorm:"column:secret_algo;type:text"`
	MQTTClientID    *string   `gorm:"column:mqtt_client_id;type:text"`
	Active          bool      `gorm:"column:active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Device) TableName() string { return "devices" }

// PhysicalStatus 对应 OCPP 1.6 ChargePointStatus。
type PhysicalStatus string

const (
	StatusAvailable     PhysicalStatus = "Available"
	StatusPreparing     PhysicalStatus = "Preparing"
	StatusCharging      PhysicalStatus = "Charging"
	StatusSuspendedEV   PhysicalStatus = "SuspendedEV"
	StatusSuspendedEVSE PhysicalStatus = "SuspendedEVSE"
	StatusFinishing     PhysicalStatus = "Finishing"
	StatusReserved      PhysicalStatus = "Reserved"
	StatusUnavailable   PhysicalStatus = "Unavailable"
	StatusFaulted       PhysicalStatus = "Faulted"
)

// OperationalStatus 是运营侧的启用/停用/维护标记，独立于设备上报的物理状态。
type OperationalStatus string

const (
	OperationalEnabled     OperationalStatus = "ENABLED"
	OperationalDisabled    OperationalStatus = "DISABLED"
	OperationalMaintenance OperationalStatus = "MAINTENANCE"
)

// ChargePoint 映射 charge_points 表：一个 OCPP 逻辑端点。
type ChargePoint struct {
	ID                string             `gorm:"column:id;primaryKey;type:text"`
	DeviceID          *int64             `gorm:"column:device_id;index"`
	Vendor            *string            `gorm:"column:vendor;type:text"`
	Model             *string            `gorm:"column:model;type:text"`
	FirmwareVersion   *string            `gorm:"column:firmware_version;type:text"`
	PhysicalStatus    PhysicalStatus     `gorm:"column:physical_status;type:text;not null;default:'Unavailable'"`
	OperationalStatus OperationalStatus  `gorm:"column:operational_status;type:text;not null;default:'ENABLED'"`
	LastSeenAt        *time.Time         `gorm:"column:last_seen_at"`
	Latitude          *float64           `gorm:"column:latitude"`
	Longitude         *float64           `gorm:"column:longitude"`
	Address           *string            `gorm:"column:address;type:text"`
	PricePerKwh       *float64           `gorm:"column:price_per_kwh"`
	NominalRateKw     *float64           `gorm:"column:nominal_rate_kw"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChargePoint) TableName() string { return "charge_points" }

// IsConfigured 报告该桩是否具备调度所需的最小运营参数（位置与计费单价）。
func (c ChargePoint) IsConfigured() bool {
	return c.Latitude != nil && c.Longitude != nil && c.PricePerKwh != nil
}

// IsAvailable 是仪表盘使用的可用性派生字段。
func (c ChargePoint) IsAvailable() bool {
	return c.PhysicalStatus == StatusAvailable && c.OperationalStatus == OperationalEnabled
}

// ConnectorType 枚举物理出口类型。
type ConnectorType string

const (
	ConnectorType1 ConnectorType = "Type1"
	ConnectorType2 ConnectorType = "Type2"
	ConnectorCCS1  ConnectorType = "CCS1"
	ConnectorCCS2  ConnectorType = "CCS2"
	ConnectorGBT   ConnectorType = "GBT"
)

// Evse 映射 evses 表：一个充电桩下的物理出口（复合唯一：charge_point_id + connector_id）。
type Evse struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	ChargePointID string         `gorm:"column:charge_point_id;type:text;not null;uniqueIndex:idx_evse_cp_connector,priority:1"`
	ConnectorID   int32          `gorm:"column:connector_id;not null;uniqueIndex:idx_evse_cp_connector,priority:2"`
	ConnectorType ConnectorType  `gorm:"column:connector_type;type:text"`
	Status        PhysicalStatus `gorm:"column:status;type:text;not null;default:'Unavailable'"`
	LastErrorCode *string        `gorm:"column:last_error_code;type:text"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Evse) TableName() string { return "evses" }

// SessionStatus 是 ChargingSession 的生命周期。
type SessionStatus string

const (
	SessionActive      SessionStatus = "active"
	SessionCompleted   SessionStatus = "completed"
	SessionCancelled   SessionStatus = "cancelled"
	SessionInterrupted SessionStatus = "interrupted"
)

// ChargingSession 映射 charging_sessions 表，一次事务（transaction）的完整记录。
//
// status='active' 在每个 (charge_point_id, evse_id) 上最多一条，由
// db/migrations 中的部分唯一索引 idx_session_one_active_per_evse 保证；
// GORM 标签无法表达 WHERE 子句，迁移脚本单独维护。
type ChargingSession struct {
	ID            int64         `gorm:"column:id;primaryKey;autoIncrement"`
	ChargePointID string        `gorm:"column:charge_point_id;type:text;not null;uniqueIndex:idx_session_cp_evse_tx,priority:1;index:idx_session_cp_status,priority:1"`
	EvseID        int64         `gorm:"column:evse_id;not null;uniqueIndex:idx_session_cp_evse_tx,priority:2"`
	TransactionID int64         `gorm:"column:transaction_id;not null;uniqueIndex:idx_session_cp_evse_tx,priority:3"`
	IDTag         string        `gorm:"column:id_tag;type:text;not null"`
	UserID        *string       `gorm:"column:user_id;type:text"`
	StartTime     time.Time     `gorm:"column:start_time;not null"`
	EndTime       *time.Time    `gorm:"column:end_time"`
	MeterStart    int64         `gorm:"column:meter_start;not null"`
	MeterStop     *int64        `gorm:"column:meter_stop"`
	Status        SessionStatus `gorm:"column:status;type:text;not null;index:idx_session_cp_status,priority:2"`
	OrderID       *int64        `gorm:"column:order_id"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChargingSession) TableName() string { return "charging_sessions" }

// EnergyWh 返回事务结束后的计量电量（Wh）。
func (s ChargingSession) EnergyWh() (int64, bool) {
	if s.MeterStop == nil {
		return 0, false
	}
	return *s.MeterStop - s.MeterStart, true
}

// MeterValue 映射 meter_values 表：一次采样电量读数，始终归属于一个既有 ChargingSession。
type MeterValue struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID    int64     `gorm:"column:session_id;not null;index:idx_meter_session_ts,priority:1"`
	ConnectorID  int32     `gorm:"column:connector_id;not null"`
	Timestamp    time.Time `gorm:"column:timestamp;not null;index:idx_meter_session_ts,priority:2"`
	ValueWh      int64     `gorm:"column:value_wh;not null"`
	SampledValue string    `gorm:"column:sampled_value;type:jsonb"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MeterValue) TableName() string { return "meter_values" }

// DeviceEvent 映射 device_events 表：OCPP 动作与状态迁移的只追加审计日志。
type DeviceEvent struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChargePointID string    `gorm:"column:charge_point_id;type:text;not null;index:idx_event_cp_ts,priority:1"`
	EvseID        *int64    `gorm:"column:evse_id"`
	EventKind     string    `gorm:"column:event_kind;type:text;not null"`
	Payload       string    `gorm:"column:payload;type:jsonb"`
	Timestamp     time.Time `gorm:"column:timestamp;not null;index:idx_event_cp_ts,priority:2"`
}

func (DeviceEvent) TableName() string { return "device_events" }

// IdTagStatus 对应 OCPP 1.6 AuthorizationStatus 枚举。
type IdTagStatus string

const (
	IDTagAccepted     IdTagStatus = "Accepted"
	IDTagBlocked      IdTagStatus = "Blocked"
	IDTagExpired      IdTagStatus = "Expired"
	IDTagInvalid      IdTagStatus = "Invalid"
	IDTagConcurrentTx IdTagStatus = "ConcurrentTx"
)

// IdTag 映射 id_tags 表：用户令牌的授权记录。
type IdTag struct {
	Tag       string      `gorm:"column:tag;type:text;primaryKey"`
	Status    IdTagStatus `gorm:"column:status;type:text;not null"`
	ParentID  *string     `gorm:"column:parent_id;type:text"`
	Expiry    *time.Time  `gorm:"column:expiry"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (IdTag) TableName() string { return "id_tags" }

// Order 映射 orders 表：围绕一次已完成会话的结算单（仅按电量线性计费）。
type Order struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID int64     `gorm:"column:session_id;not null;uniqueIndex"`
	EnergyKwh float64   `gorm:"column:energy_kwh;not null"`
	CostCents int64     `gorm:"column:cost_cents;not null"`
	Currency  string    `gorm:"column:currency;type:text;not null;default:'COP'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }
