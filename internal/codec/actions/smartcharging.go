package actions

// ---------- SetChargingProfile / ClearChargingProfile / GetCompositeSchedule ----------
//
// The core only persists charging profiles (§1 Non-goals excludes a solver);
// these structs exist to validate the inbound/outbound shape.

type ChargingSchedulePeriod struct {
	StartPeriod  int      `json:"startPeriod"`
	Limit        float64  `json:"limit"`
	NumberPhases *int     `json:"numberPhases,omitempty"`
}

type ChargingSchedule struct {
	Duration               *int                     `json:"duration,omitempty"`
	StartSchedule          string                   `json:"startSchedule,omitempty" validate:"omitempty,rfc3339"`
	ChargingRateUnit       string                   `json:"chargingRateUnit" validate:"required,oneof=A W"`
	ChargingSchedulePeriod []ChargingSchedulePeriod `json:"chargingSchedulePeriod" validate:"required,min=1"`
	MinChargingRate        *float64                 `json:"minChargingRate,omitempty"`
}

type ChargingProfile struct {
	ChargingProfileID      int              `json:"chargingProfileId"`
	TransactionID          *int64           `json:"transactionId,omitempty"`
	StackLevel             int              `json:"stackLevel"`
	ChargingProfilePurpose string           `json:"chargingProfilePurpose" validate:"required,oneof=ChargePointMaxProfile TxDefaultProfile TxProfile"`
	ChargingProfileKind    string           `json:"chargingProfileKind" validate:"required,oneof=Absolute Recurring Relative"`
	RecurrencyKind         string           `json:"recurrencyKind,omitempty" validate:"omitempty,oneof=Daily Weekly"`
	ValidFrom              string           `json:"validFrom,omitempty" validate:"omitempty,rfc3339"`
	ValidTo                string           `json:"validTo,omitempty" validate:"omitempty,rfc3339"`
	ChargingSchedule       ChargingSchedule `json:"chargingSchedule" validate:"required"`
}

type SetChargingProfileRequest struct {
	ConnectorID     int             `json:"connectorId" validate:"min=0"`
	CsChargingProfiles ChargingProfile `json:"csChargingProfiles" validate:"required"`
}

type SetChargingProfileResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Rejected NotSupported"`
}

type ClearChargingProfileRequest struct {
	ID                     *int   `json:"id,omitempty"`
	ConnectorID            *int   `json:"connectorId,omitempty"`
	ChargingProfilePurpose string `json:"chargingProfilePurpose,omitempty" validate:"omitempty,oneof=ChargePointMaxProfile TxDefaultProfile TxProfile"`
	StackLevel             *int   `json:"stackLevel,omitempty"`
}

type ClearChargingProfileResponse struct {
	Status string `json:"status" validate:"required,oneof=Accepted Unknown"`
}

type GetCompositeScheduleRequest struct {
	ConnectorID      int    `json:"connectorId" validate:"min=0"`
	Duration         int    `json:"duration"`
	ChargingRateUnit string `json:"chargingRateUnit,omitempty" validate:"omitempty,oneof=A W"`
}

type GetCompositeScheduleResponse struct {
	Status           string            `json:"status" validate:"required,oneof=Accepted Rejected"`
	ConnectorID      *int              `json:"connectorId,omitempty"`
	ScheduleStart    string            `json:"scheduleStart,omitempty" validate:"omitempty,rfc3339"`
	ChargingSchedule *ChargingSchedule `json:"chargingSchedule,omitempty"`
}
