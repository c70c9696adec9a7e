package models

// Requests for dataset HTTP endpoints.

type DatasetRequest struct {
	Month   string `query:"month" json:"month" default:"auto" validate:"required"`
	Markets string `query:"markets" json:"markets"`
}

type SeriesRequest struct {
	Name    string `param:"name" json:"name" validate:"required"`
	Month   string `query:"month" json:"month" default:"auto" validate:"required"`
	Markets string `query:"markets" json:"markets"`
}
