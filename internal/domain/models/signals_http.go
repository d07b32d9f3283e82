package models

// Requests for serving HTTP endpoints. Defined in domain for consistency and reuse.

type ArtifactRequest struct {
	Name string `param:"name" json:"name" validate:"required,oneof=pulse volatility predictions macro metrics sectors watchlist"`
}

type PulseHistoryRequest struct {
	Days int `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}
