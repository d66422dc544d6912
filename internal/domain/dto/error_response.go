package dto

// ErrorResponse is the generic failure envelope written by middleware
// (recovered panics, errors attached to the gin context).
//
// It keeps the same {data, info} shape as the endpoint envelopes so clients
// can always read info.error.
type ErrorResponse struct {
	Data any  `json:"data" swaggertype:"object"`
	Info Info `json:"info"`
}

// NewErrorResponse builds an ErrorResponse. When err is non-nil its text is
// appended to message.
func NewErrorResponse(message string, err error) ErrorResponse {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return ErrorResponse{
		Data: struct{}{},
		Info: Info{Error: message},
	}
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	return e.Info.Error
}
