package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON performs a GET request and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, queryParams map[string]string, out interface{}) error {
	resp, err := c.Get(ctx, path, queryParams)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// PostJSON performs a POST request and decodes the response into out.
// Pass a nil out to discard the response body.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// PutJSON performs a PUT request and decodes the response into out.
func (c *Client) PutJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.Put(ctx, path, body)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// DeleteJSON performs a DELETE request, discarding any response body.
func (c *Client) DeleteJSON(ctx context.Context, path string) error {
	resp, err := c.Delete(ctx, path)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// decode turns non-2xx responses into *APIError and unmarshals the rest.
func decode(resp *Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
