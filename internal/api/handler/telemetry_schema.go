package handler

type measurementRequest struct {
	Measurement string            `json:"measurement" validate:"required"`
	Value       *float64          `json:"value"       validate:"required"`
	Tags        map[string]string `json:"tags"`
}

type readingsQuery struct {
	Measurement string `query:"measurement" validate:"required"`
	Hours       int    `query:"timeRange"   validate:"omitempty,gt=0"`
}

type bucketResponse struct {
	Bucket  string `json:"bucket"`
	Created bool   `json:"created"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
