package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTGateway talks to the hosted backend's PostgREST interface with the service credential
type RESTGateway struct {
	client *resty.Client
}

type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// NewREST creates a gateway for the project at baseURL (e.g. https://xyz.supabase.co)
func NewREST(baseURL, serviceKey string, timeout time.Duration) *RESTGateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetTimeout(timeout).
		SetRetryCount(0). // failures surface once, the resilient wrapper decides what happens next
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RESTGateway{client: client}
}

// Insert posts row and returns the representation created by the backend
func (g *RESTGateway) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := validateIdentifiers(table, nil); err != nil {
		return nil, err
	}

	var created []Row
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(row).
		SetResult(&created).
		SetError(&restError{}).
		Post("/" + table)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("insert into %s: empty representation", table)
	}
	return created[0], nil
}

// Update patches the matching rows and returns them
func (g *RESTGateway) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if err := validateIdentifiers(table, filters); err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("update %s: refusing unfiltered update", table)
	}

	var updated []Row
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(encodeFilters(filters)).
		SetBody(patch).
		SetResult(&updated).
		SetError(&restError{}).
		Patch("/" + table)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	return updated, nil
}

// Select fetches every column of the matching rows
func (g *RESTGateway) Select(ctx context.Context, table string, filters ...Filter) ([]Row, error) {
	if err := validateIdentifiers(table, filters); err != nil {
		return nil, err
	}

	params := encodeFilters(filters)
	params.Set("select", "*")

	var rows []Row
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&rows).
		SetError(&restError{}).
		Get("/" + table)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	return rows, nil
}

func encodeFilters(filters []Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		params.Add(f.Column, encodeFilter(f))
	}
	return params
}

func encodeFilter(f Filter) string {
	if f.Value == nil {
		if f.Op == OpNeq {
			return "not.is.null"
		}
		return "is.null"
	}
	switch v := f.Value.(type) {
	case time.Time:
		return string(f.Op) + "." + v.UTC().Format(time.RFC3339Nano)
	default:
		return string(f.Op) + "." + fmt.Sprint(v)
	}
}

func toAPIError(resp *resty.Response) error {
	code, message := "", http.StatusText(resp.StatusCode())
	if body, ok := resp.Error().(*restError); ok && body != nil {
		code = body.Code
		if body.Message != "" {
			message = body.Message
		}
	}
	return NewAPIError(resp.StatusCode(), code, message)
}
