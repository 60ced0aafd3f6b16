package common

// RequestIDHeaderName is the HTTP header used to carry the request id.
// Incoming values are echoed back, otherwise a new one is generated.
const RequestIDHeaderName = "X-Request-ID"

// MaxRequestBodySize caps the size of the action endpoint body.
const MaxRequestBodySize = 1 << 20
