// Package protocol defines the messages exchanged between the exporter and a
// page's document context.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"coursexport/internal/models"
)

// TypeExtractCourseData asks the document context for the course payload.
const TypeExtractCourseData = "extract-course-data"

// ErrNoReceiver is returned by a send when the target has no listener registered,
// for example right after a navigation.
var ErrNoReceiver = errors.New("could not establish connection: receiving end does not exist")

// ErrEmptyResponse is reported when a listener answers ok without data.
var ErrEmptyResponse = errors.New("empty response from page")

// ErrUnknownType is reported by a listener for a message type it does not handle.
var ErrUnknownType = errors.New("unknown message type")

// Request is sent from the exporter to the document context.
type Request struct {
	Type string `json:"type"`
}

// ExtractRequest returns the course data request.
func ExtractRequest() Request {
	return Request{Type: TypeExtractCourseData}
}

// Response is returned by the document context.
type Response struct {
	OK    bool           `json:"ok"`
	Data  *ExtractResult `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

// ExtractResult carries the page slug and the export payload.
type ExtractResult struct {
	Slug    string               `json:"slug"`
	Payload models.ExportPayload `json:"payload"`
}

// Success wraps a result in an ok response.
func Success(result *ExtractResult) Response {
	return Response{OK: true, Data: result}
}

// Failure wraps an error in a structured failure response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Result returns the carried data, or the reported error for a failure response.
func (r Response) Result() (*ExtractResult, error) {
	if !r.OK {
		if r.Error == "" {
			return nil, errors.New("unknown error")
		}

		return nil, errors.New(r.Error)
	}

	if r.Data == nil {
		return nil, ErrEmptyResponse
	}

	return r.Data, nil
}

// EncodeRequest marshals a request for the message boundary.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	return data, nil
}

// DecodeRequest unmarshals a request received by a listener.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("unmarshal request: %w", err)
	}

	return req, nil
}

// EncodeResponse marshals a listener's response.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}

	return data, nil
}

// DecodeResponse unmarshals a response on the caller side.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp, nil
}
