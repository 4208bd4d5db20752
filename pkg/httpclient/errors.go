package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// DownstreamErrorResponse is the structured error body written by
// pkg/httputil.WriteError, which the sandbox API also uses.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// plainErrorResponse covers APIs that answer with a flat {"message": "..."} body.
type plainErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. Structured bodies keep their code and message; flat
// bodies keep their message; anything else is reported verbatim.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil && downstream.Error != nil {
		return mapDownstreamError(resp.StatusCode, downstream.Error.Code, downstream.Error.Message, serviceName)
	}

	var plain plainErrorResponse
	if json.Unmarshal(bodyBytes, &plain) == nil && plain.Message != "" {
		return mapDownstreamError(resp.StatusCode, plain.Code, plain.Message, serviceName)
	}

	message := strings.TrimSpace(string(bodyBytes))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return mapDownstreamError(resp.StatusCode, "", message, serviceName)
}

// mapDownstreamError translates a downstream status code and error code into
// an AppError that keeps the error semantics for errors.Is matching.
func mapDownstreamError(status int, code, message, serviceName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	var appErr *apperrors.AppError
	switch {
	case status == http.StatusNotFound:
		appErr = apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		appErr = apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		appErr = apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized:
		appErr = apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		appErr = apperrors.Forbidden(qualifiedMsg)
	case status == http.StatusGone:
		appErr = apperrors.Gone(qualifiedMsg)
	case status == http.StatusServiceUnavailable:
		appErr = apperrors.ServiceUnavailable(qualifiedMsg)
	case status >= 500:
		appErr = &apperrors.AppError{
			Code:    "UPSTREAM_ERROR",
			Message: qualifiedMsg,
			Status:  status,
			Err:     apperrors.ErrInternal,
		}
	default:
		appErr = &apperrors.AppError{
			Code:    "UPSTREAM_ERROR",
			Message: qualifiedMsg,
			Status:  status,
		}
	}

	if code != "" {
		appErr.Code = code
	}
	appErr.Status = status
	return appErr
}
