package models

type VesselsRequest struct {
	Limit    int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=5000"`
	Provider string `query:"provider" json:"provider"`
}

type VesselRequest struct {
	MMSI string `param:"mmsi" json:"mmsi" validate:"required"`
}

type PortsRequest struct {
	Limit int `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type PortRequest struct {
	PortID string `param:"id" json:"id" validate:"required"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Vessels int    `json:"vessels"`
	Ports   int    `json:"ports"`
}
