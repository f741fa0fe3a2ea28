package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Event delivery
	FieldEventID   = "event_id"
	FieldEventType = "event_type"
	FieldSubject   = "subject"
	FieldTransport = "transport"

	// Objects
	FieldContainer = "container"
	FieldBlob      = "blob"
	FieldSize      = "size"
	FieldWidth     = "width"
	FieldHeight    = "height"
)
