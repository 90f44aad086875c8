package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// UtilAPI covers parsing helpers, health probes and data export.
type UtilAPI struct {
	c *Client
}

// ParseUser resolves a free-form user reference (@handle, id, link).
func (a *UtilAPI) ParseUser(ctx context.Context, text string) (*ParsedUser, error) {
	if text == "" {
		return nil, validationError("user reference is required")
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, &Error{Message: err.Error(), Class: ClassGeneric, Err: err}
	}
	resp, err := a.c.NewRequest(ctx, "POST", "/parse-user", bytes.NewReader(body), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[ParsedUser](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Health probes the backend.
func (a *UtilAPI) Health(ctx context.Context) (*HealthInfo, error) {
	resp, err := a.c.NewRequest(ctx, "GET", "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[HealthInfo](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Info returns backend identity and version.
func (a *UtilAPI) Info(ctx context.Context) (*ServiceInfo, error) {
	resp, err := a.c.NewRequest(ctx, "GET", "/info", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	ret, err := parseResponse[ServiceInfo](resp)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Export downloads a binary payload. Unlike every other endpoint the body is
// returned verbatim, not decoded as JSON.
func (a *UtilAPI) Export(ctx context.Context, format, dataType string, filters *FilterOptions) ([]byte, error) {
	switch format {
	case "csv", "json", "pdf":
	default:
		return nil, validationError("unsupported export format %q", format)
	}
	switch dataType {
	case "actions", "members", "groups":
	default:
		return nil, validationError("unsupported export data type %q", dataType)
	}
	params := filters.params()
	params["format"] = format
	params["data_type"] = dataType

	resp, err := a.c.NewRequest(ctx, "GET", "/export", nil, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("read export payload: %v", err), Class: ClassTransport, Err: err}
	}
	return data, nil
}
