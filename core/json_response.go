package core

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Response renders itself onto an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// JSONResponse is the standard JSON envelope.
type JSONResponse struct {
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	Error   *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a 200 JSON response.
func JSON(code string, data any, meta map[string]any) Response {
	return jsonResponse{
		status: http.StatusOK,
		body: JSONResponse{
			Code: code,
			Data: data,
			Meta: meta,
		},
	}
}

// JSONStatus creates a JSON response with an explicit status code.
func JSONStatus(status int, code string, data any) Response {
	return jsonResponse{
		status: status,
		body: JSONResponse{
			Code: code,
			Data: data,
		},
	}
}

// JSONError creates a JSON error response from an error. Domain errors are
// first translated through ErrorFrom so handlers can return them directly.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	code := "internal_server_error"
	detail := &ErrorDetail{
		Code:    code,
		Message: err.Error(),
	}

	if valErr, ok := err.(ValidationError); ok {
		status = http.StatusUnprocessableEntity
		code = "validation_error"
		detail.Code = code
		detail.Message = http.StatusText(status)
		if len(valErr) > 0 {
			detail.Details = make(map[string][]string)
			maps.Copy(detail.Details, valErr)
		}
	} else {
		httpErr := ErrorFrom(err)
		status = httpErr.Code
		code = httpErr.Key
		detail.Code = code
		if status == http.StatusInternalServerError {
			// Never leak internal error text to clients.
			detail.Message = http.StatusText(status)
		}
	}

	return jsonResponse{
		status: status,
		body: JSONResponse{
			Code:  code,
			Error: detail,
		},
	}
}

// Render writes a response, falling back to a plain 500 when rendering
// itself fails (e.g., the body is not serializable).
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if err := resp.Render(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
