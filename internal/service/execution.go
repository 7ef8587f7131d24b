package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"

	"github.com/pkg/errors"
)

var ErrLogicNotProvided = errors.New("logic not provided")

func getCorrelationId(request *http.Request) string {
	if correlationId := request.Header.Get(internal.HeaderCorrelationId); correlationId != "" {
		return correlationId
	}
	return internal.GenerateId()
}

// decodeBody unmarshals the request body into v, malformed bodies are
// reported as validation errors.
func decodeBody(request *http.Request, v any) error {
	var typeError *json.UnmarshalTypeError

	bytes, err := io.ReadAll(request.Body)
	defer request.Body.Close()
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}
	if len(bytes) == 0 {
		return data.NewValidationError(data.FieldError{
			Field:   "body",
			Message: "field required",
		})
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		if errors.As(err, &typeError) {
			return data.NewValidationError(data.FieldError{
				Field:   typeError.Field,
				Message: "value must be a " + typeError.Type.String(),
			})
		}
		return data.NewValidationError(data.FieldError{
			Field:   "body",
			Message: "invalid json: " + err.Error(),
		})
	}
	return nil
}

func statusFromError(err error) int {
	switch data.KindOf(err) {
	default:
		return http.StatusInternalServerError
	case data.ErrorKindNotFound:
		return http.StatusNotFound
	case data.ErrorKindConflict, data.ErrorKindInvalidReference:
		return http.StatusBadRequest
	case data.ErrorKindValidation:
		return http.StatusUnprocessableEntity
	case data.ErrorKindForbidden:
		return http.StatusForbidden
	}
}

func errorResponse(err error) *data.ErrorResponse {
	var e *data.Error

	if errors.As(err, &e) {
		return &data.ErrorResponse{
			Detail: e.Message,
			Errors: e.Fields,
		}
	}
	return &data.ErrorResponse{Detail: err.Error()}
}

func (s *service) handleResponse(ctx context.Context, writer http.ResponseWriter, err error, items ...any) {
	s.handleResponseStatus(ctx, writer, http.StatusOK, err, items...)
}

// handleResponseStatus writes the first item as json with the given status,
// a nil error with no items is a 204 and errors are written as an
// ErrorResponse with the status of their kind.
func (s *service) handleResponseStatus(ctx context.Context, writer http.ResponseWriter, statusCode int, err error, items ...any) {
	var bytes []byte

	if err == nil {
		if len(items) == 0 {
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		bytes, err = json.Marshal(items[0])
	}
	if err != nil {
		statusCode = statusFromError(err)
		switch {
		case statusCode >= http.StatusInternalServerError:
			s.Error(ctx, "error while handling request: %s", err)
		default:
			s.Debug(ctx, "request failed: %s", err)
		}
		if bytes, err = json.Marshal(errorResponse(err)); err != nil {
			s.Error(ctx, "error handling response: %s", err)
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(bytes); err != nil {
		s.Error(ctx, "error handling response: %s", err)
	}
}
