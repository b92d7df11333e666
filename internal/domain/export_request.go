package domain

// SelectionMode identifies how the area of interest for an export is described.
type SelectionMode string

// Possible selection mode values
const (
	SelectionModeCircle  SelectionMode = "circle"
	SelectionModePolygon SelectionMode = "polygon"
	SelectionModeBBox    SelectionMode = "bbox"
)

// ExportRequest is the canonicalized set of parameters that fully determines
// a generated artifact. Two semantically identical requests (same values, any
// key ordering, null treated as absent) derive the same cache key.
// Immutable once constructed.
type ExportRequest struct {
	// Lat and Lon are the center coordinates of the export area.
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`

	// Radius in meters; required for circle mode.
	Radius *float64 `json:"radius,omitempty" validate:"required_if=Mode circle,omitempty,gt=0,lte=100000"`

	// Mode selects how the area of interest is described.
	Mode SelectionMode `json:"mode" validate:"required,oneof=circle polygon bbox"`

	// Boundary carries an optional GeoJSON-like area boundary for polygon
	// and bbox modes. Its structure is validated by the generation engine,
	// not here.
	Boundary map[string]interface{} `json:"boundary,omitempty"`

	// Layers maps layer identifiers to whether they are included.
	Layers map[string]bool `json:"layers,omitempty"`

	// Projection selects the output coordinate reference.
	Projection string `json:"projection,omitempty" validate:"omitempty,oneof=geographic utm"`
}

// TaskPayload is the body posted to the webhook endpoint by the external
// task queue. It embeds the full export request alongside the bookkeeping
// the callback handler needs to finish the job.
type TaskPayload struct {
	TaskID string `json:"taskId"`

	ExportRequest

	// OutputFile is the path the engine is expected to write; the handler
	// recomputes it from Filename against its own export directory rather
	// than trusting the embedded path.
	OutputFile  string `json:"outputFile"`
	Filename    string `json:"filename"`
	CacheKey    string `json:"cacheKey"`
	DownloadURL string `json:"downloadUrl"`
}

// DispatchResult is returned by the task dispatcher. AlreadyCompleted
// signals the synchronous-fallback path ran and no polling is required.
type DispatchResult struct {
	JobID            string
	AlreadyCompleted bool
}
