// Package actions holds the OCPP 1.6 payload structs, grouped by profile
// the same way adolfosan-electromobility-centralsystem's actions package
// groups them (core, firmware, reservation, localauth, smartcharging).
// Validation uses go-playground/validator/v10 struct tags.
package actions

// ---------- BootNotification ----------

type BootNotificationRequest struct {
	ChargePointVendor       string `json:"chargePointVendor" validate:"required,max=20"`
	ChargePointModel        string `json:"chargePointModel" validate:"required,max=20"`
	ChargePointSerialNumber string `json:"chargePointSerialNumber,omitempty" validate:"max=25"`
	FirmwareVersion         string `json:"firmwareVersion,omitempty" validate:"max=50"`
	Iccid                   string `json:"iccid,omitempty" validate:"max=20"`
	Imsi                    string `json:"imsi,omitempty" validate:"max=20"`
	MeterSerialNumber       string `json:"meterSerialNumber,omitempty" validate:"max=25"`
	MeterType               string `json:"meterType,omitempty" validate:"max=25"`
}

type BootNotificationResponse struct {
	Status      string `json:"status" validate:"required,oneof=Accepted Pending Rejected"`
	CurrentTime string `json:"currentTime" validate:"required"`
	Interval    int    `json:"interval" validate:"min=0"`
}

// ---------- Heartbeat ----------

type HeartbeatRequest struct{}

type HeartbeatResponse struct {
	CurrentTime string `json:"currentTime" validate:"required"`
}

// ---------- StatusNotification ----------

type StatusNotificationRequest struct {
	ConnectorID     int    `json:"connectorId" validate:"min=0"`
	ErrorCode       string `json:"errorCode" validate:"required"`
	Status          string `json:"status" validate:"required,oneof=Available Preparing Charging SuspendedEV SuspendedEVSE Finishing Reserved Unavailable Faulted"`
	Info            string `json:"info,omitempty" validate:"max=50"`
	Timestamp       string `json:"timestamp,omitempty" validate:"omitempty,rfc3339"`
	VendorID        string `json:"vendorId,omitempty" validate:"max=255"`
	VendorErrorCode string `json:"vendorErrorCode,omitempty" validate:"max=50"`
}

type StatusNotificationResponse struct{}

// ---------- Authorize ----------

type AuthorizeRequest struct {
	IdTag string `json:"idTag" validate:"required,max=20"`
}

type IdTagInfo struct {
	Status      string `json:"status" validate:"required,oneof=Accepted Blocked Expired Invalid ConcurrentTx"`
	ExpiryDate  string `json:"expiryDate,omitempty" validate:"omitempty,rfc3339"`
	ParentIdTag string `json:"parentIdTag,omitempty" validate:"max=20"`
}

type AuthorizeResponse struct {
	IdTagInfo IdTagInfo `json:"idTagInfo" validate:"required"`
}

// ---------- StartTransaction ----------

type StartTransactionRequest struct {
	ConnectorID   int    `json:"connectorId" validate:"min=1"`
	IdTag         string `json:"idTag" validate:"required,max=20"`
	MeterStart    int64  `json:"meterStart" validate:"min=0"`
	ReservationID *int   `json:"reservationId,omitempty"`
	Timestamp     string `json:"timestamp" validate:"required,rfc3339"`
}

type StartTransactionResponse struct {
	TransactionID int64     `json:"transactionId"`
	IdTagInfo     IdTagInfo `json:"idTagInfo" validate:"required"`
}

// ---------- StopTransaction ----------

type StopTransactionRequest struct {
	TransactionID   int64           `json:"transactionId" validate:"required"`
	IdTag           string          `json:"idTag,omitempty" validate:"max=20"`
	MeterStop       int64           `json:"meterStop" validate:"min=0"`
	Timestamp       string          `json:"timestamp" validate:"required,rfc3339"`
	Reason          string          `json:"reason,omitempty" validate:"omitempty,oneof=EmergencyStop EVDisconnected HardReset Local Other PowerLoss Reboot Remote SoftReset UnlockCommand DeAuthorized"`
	TransactionData []MeterValue    `json:"transactionData,omitempty"`
}

type StopTransactionResponse struct {
	IdTagInfo *IdTagInfo `json:"idTagInfo,omitempty"`
}

// ---------- MeterValues ----------

type SampledValue struct {
	Value     string `json:"value" validate:"required"`
	Context   string `json:"context,omitempty"`
	Format    string `json:"format,omitempty"`
	Measurand string `json:"measurand,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Location  string `json:"location,omitempty"`
	Unit      string `json:"unit,omitempty"`
}

type MeterValue struct {
	Timestamp    string         `json:"timestamp" validate:"required,rfc3339"`
	SampledValue []SampledValue `json:"sampledValue" validate:"required,min=1,dive"`
}

type MeterValuesRequest struct {
	ConnectorID   int          `json:"connectorId" validate:"min=0"`
	TransactionID *int64       `json:"transactionId,omitempty"`
	MeterValue    []MeterValue `json:"meterValue" validate:"required,min=1,dive"`
}

type MeterValuesResponse struct{}

// ---------- DataTransfer ----------

type DataTransferRequest struct {
	VendorID  string `json:"vendorId" validate:"required,max=255"`
	MessageID string `json:"messageId,omitempty" validate:"max=50"`
	Data      string `json:"data,omitempty"`
}

type DataTransferResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected UnknownMessageId UnknownVendorId"`
	Data   string `json:"data,omitempty"`
}

// ---------- FirmwareStatusNotification / DiagnosticsStatusNotification ----------

type FirmwareStatusNotificationRequest struct {
	Status string `json:"status" validate:"required,oneof=Downloaded DownloadFailed Downloading Idle InstallationFailed Installing Installed"`
}

type FirmwareStatusNotificationResponse struct{}

type DiagnosticsStatusNotificationRequest struct {
	Status string `json:"status" validate:"required,oneof=Idle Uploaded UploadFailed Uploading"`
}

type DiagnosticsStatusNotificationResponse struct{}

// ---------- server-initiated: RemoteStartTransaction / RemoteStopTransaction ----------

type RemoteStartTransactionRequest struct {
	ConnectorID *int   `json:"connectorId,omitempty"`
	IdTag       string `json:"idTag" validate:"required,max=20"`
}

type RemoteStartTransactionResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected"`
}

type RemoteStopTransactionRequest struct {
	TransactionID int64 `json:"transactionId" validate:"required"`
}

type RemoteStopTransactionResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected"`
}

// ---------- Reset / ChangeAvailability / ChangeConfiguration / GetConfiguration / ClearCache ----------

type ResetRequest struct {
	Type string `json:"type" validate:"required,oneof=Hard Soft"`
}

type ResetResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected"`
}

type ChangeAvailabilityRequest struct {
	ConnectorID int    `json:"connectorId" validate:"min=0"`
	Type        string `json:"type" validate:"required,oneof=Inoperative Operative"`
}

type ChangeAvailabilityResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected Scheduled"`
}

type ChangeConfigurationRequest struct {
	Key   string `json:"key" validate:"required,max=50"`
	Value string `json:"value" validate:"required,max=500"`
}

type ChangeConfigurationResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected RebootRequired NotSupported"`
}

type GetConfigurationRequest struct {
	Key []string `json:"key,omitempty"`
}

type ConfigurationKey struct {
	Key      string `json:"key"`
	Readonly bool   `json:"readonly"`
	Value    string `json:"value,omitempty"`
}

type GetConfigurationResponse struct {
	ConfigurationKey []ConfigurationKey `json:"configurationKey,omitempty"`
	UnknownKey       []string           `json:"unknownKey,omitempty"`
}

type ClearCacheRequest struct{}

type ClearCacheResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected"`
}

// ---------- TriggerMessage / UnlockConnector ----------

type TriggerMessageRequest struct {
	RequestedMessage string `json:"requestedMessage" validate:"required,oneof=BootNotification DiagnosticsStatusNotification FirmwareStatusNotification Heartbeat MeterValues StatusNotification"`
	ConnectorID      *int   `json:"connectorId,omitempty"`
}

type TriggerMessageResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected NotImplemented"`
}

type UnlockConnectorRequest struct {
	ConnectorID int `json:"connectorId" validate:"min=1"`
}

type UnlockConnectorResponse struct {
	Status string `json:"status" validate:"required,oneof=Unlocked UnlockFailed NotSupported"`
}
