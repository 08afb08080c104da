package delivery

import (
	"io"
	"net/http"
	"strconv"

	"github.com/aranyasourav/triggerhub/internal/models"
)

// outcomeKind is an explicit result variant in place of
// exceptions-as-control-flow: delivery_outcome ∈ {http_status,
// transport_failure, parse_failure, other}. A 2xx http_status is success.
type outcomeKind int

const (
	outcomeHTTPStatus outcomeKind = iota
	outcomeTransportFailure
	outcomeParseFailure
	outcomeOtherFrameworkError
)

// outcome is the classified result of one delivery attempt.
type outcome struct {
	kind       outcomeKind
	status     int // real HTTP status, only meaningful when kind == outcomeHTTPStatus
	body       string
	headers    []models.Header
	message    string
	retryAfter *int // seconds, only set when the response carried a valid Retry-After
}

// storedStatus returns the value written to invocation_logs.status.
func (o outcome) storedStatus() int {
	switch o.kind {
	case outcomeHTTPStatus:
		return o.status
	case outcomeTransportFailure:
		return models.StatusTransportFailure
	case outcomeParseFailure:
		return models.StatusParseFailure
	default:
		return models.StatusOtherFrameworkErr
	}
}

// success iff 100 <= status < 400, and only for real HTTP responses.
func (o outcome) success() bool {
	return o.kind == outcomeHTTPStatus && o.status >= 100 && o.status < 400
}

func (o outcome) responseEnvelope() []byte {
	if o.kind == outcomeHTTPStatus {
		reqHeaders := make([]models.RequestHeader, 0, len(o.headers))
		for _, h := range o.headers {
			reqHeaders = append(reqHeaders, models.RequestHeader{Name: h.Name, Value: h.Value})
		}
		return models.MarshalWebhookResponse(o.body, reqHeaders, o.status)
	}
	return models.MarshalClientError(o.message)
}

// classifyTransportError builds the client_error(1000) outcome for a
// transport/DNS/connect failure.
func classifyTransportError(err error) outcome {
	return outcome{kind: outcomeTransportFailure, message: err.Error()}
}

// classifyParseError builds the client_error(1001) outcome for a response
// body that could not be read.
func classifyParseError(err error) outcome {
	return outcome{kind: outcomeParseFailure, message: err.Error()}
}

// classifyOtherError builds the client_error(500) outcome for any other
// framework-level failure not covered by the two cases above.
func classifyOtherError(err error) outcome {
	return outcome{kind: outcomeOtherFrameworkError, message: err.Error()}
}

// classifyResponse reads the body and builds the http_status outcome,
// parsing Retry-After off the raw *http.Response.
func classifyResponse(resp *http.Response) outcome {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyParseError(err)
	}

	headers := make([]models.Header, 0, len(resp.Header))
	for name, values := range resp.Header {
		for _, v := range values {
			headers = append(headers, models.Header{Name: name, Value: v})
		}
	}

	o := outcome{
		kind:    outcomeHTTPStatus,
		status:  resp.StatusCode,
		body:    string(body),
		headers: headers,
	}
	if secs, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
		o.retryAfter = &secs
	}
	return o
}

// parseRetryAfter accepts only a positive integer number of seconds;
// negative or unparseable values are ignored.
func parseRetryAfter(header string) (int, bool) {
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return secs, true
}
