package actions

// ---------- GetDiagnostics ----------

type GetDiagnosticsRequest struct {
	Location      string `json:"location" validate:"required,url"`
	Retries       *int   `json:"retries,omitempty"`
	RetryInterval *int   `json:"retryInterval,omitempty"`
	StartTime     string `json:"startTime,omitempty" validate:"omitempty,rfc3339"`
	StopTime      string `json:"stopTime,omitempty" validate:"omitempty,rfc3339"`
}

type GetDiagnosticsResponse struct {
	FileName string `json:"fileName,omitempty" validate:"max=255"`
}

// ---------- UpdateFirmware ----------

type UpdateFirmwareRequest struct {
	Location      string `json:"location" validate:"required,url"`
	Retries       *int   `json:"retries,omitempty"`
	RetrieveDate  string `json:"retrieveDate" validate:"required,rfc3339"`
	RetryInterval *int   `json:"retryInterval,omitempty"`
}

type UpdateFirmwareResponse struct{}
