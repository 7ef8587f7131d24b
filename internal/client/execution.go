package client

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"net/http"
	"os"

	"github.com/antonio-alexander/go-hrms-lite/internal/data"

	"github.com/pkg/errors"
)

// knownErrors are the errors the service can respond with, they're matched
// by kind and message so callers can use errors.Is
var knownErrors = []*data.Error{
	data.ErrEmployeeNotFound,
	data.ErrEmployeeReference,
	data.ErrEmployeeIdExists,
	data.ErrEmailExists,
	data.ErrAttendanceNotFound,
	data.ErrAttendanceExists,
	data.ErrMutateDisabled,
}

func kindFromStatus(statusCode int, detail string) data.ErrorKind {
	switch statusCode {
	default:
		return data.ErrorKindUnknown
	case http.StatusNotFound:
		return data.ErrorKindNotFound
	case http.StatusBadRequest:
		if detail == data.ErrEmployeeReference.Message {
			return data.ErrorKindInvalidReference
		}
		return data.ErrorKindConflict
	case http.StatusUnprocessableEntity:
		return data.ErrorKindValidation
	case http.StatusForbidden:
		return data.ErrorKindForbidden
	}
}

// errorFromResponse converts a non-2xx response into an error, when the body
// is an ErrorResponse matching a known error, that error is returned as is.
func errorFromResponse(statusCode int, bytes []byte) error {
	var response data.ErrorResponse

	if err := json.Unmarshal(bytes, &response); err != nil || response.Detail == "" {
		return errors.Errorf("status code: %d; %s", statusCode, string(bytes))
	}
	kind := kindFromStatus(statusCode, response.Detail)
	switch kind {
	case data.ErrorKindUnknown:
		return errors.Errorf("status code: %d; %s", statusCode, response.Detail)
	case data.ErrorKindValidation:
		return data.NewValidationError(response.Errors...)
	}
	for _, knownError := range knownErrors {
		if knownError.Kind == kind && knownError.Message == response.Detail {
			return knownError
		}
	}
	return &data.Error{
		Kind:    kind,
		Message: response.Detail,
		Fields:  response.Errors,
	}
}

func getTransport(sslCaFile, sslCrtFile, sslKeyFile string) (*http.Transport, error) {
	if sslCaFile == "" || sslCrtFile == "" || sslKeyFile == "" {
		return &http.Transport{}, nil
	}
	caCertPool := x509.NewCertPool()
	bytes, err := os.ReadFile(sslCaFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading ca file")
	}
	caCertPool.AppendCertsFromPEM(bytes)
	certificate, err := tls.LoadX509KeyPair(sslCrtFile, sslKeyFile)
	if err != nil {
		return nil, errors.Wrap(err, "loading key pair")
	}
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:   tls.VersionTLS12,
			RootCAs:      caCertPool,
			Certificates: []tls.Certificate{certificate},
		},
	}, nil
}
