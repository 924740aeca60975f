package internal

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) (*DevOpsClient, *httpmock.MockTransport) {
	t.Helper()
	client := NewDevOpsClient("contoso", "s3cr3t", DevOpsClientOptions{Timeout: 5 * time.Second, Retries: 0})
	mt := httpmock.NewMockTransport()
	client.HTTPClient().Transport = mt
	return client, mt
}

func TestBuildURL(t *testing.T) {
	client := NewDevOpsClient("contoso", "s3cr3t", DevOpsClientOptions{})

	subtests := []struct {
		name    string
		host    string
		project string
		area    string
		query   url.Values
		want    string
	}{
		{
			name: "organization scoped",
			host: "dev.azure.com",
			area: "projects",
			query: url.Values{
				"api-version": []string{"7.1"},
			},
			want: "https://dev.azure.com/contoso/_apis/projects?api-version=7.1",
		},
		{
			name:    "project scoped with escaping",
			host:    "vsrm.dev.azure.com",
			project: "Web Shop",
			area:    "/release/definitions",
			want:    "https://vsrm.dev.azure.com/contoso/Web%20Shop/_apis/release/definitions",
		},
	}

	for _, s := range subtests {
		t.Run(s.name, func(t *testing.T) {
			assert.Equal(t, s.want, client.BuildURL(s.host, s.project, s.area, s.query))
		})
	}
}

func TestGetJSONSendsBasicAuth(t *testing.T) {
	client, mt := newMockedClient(t)

	var gotAuth, gotAgent string
	mt.RegisterResponder(http.MethodGet, "https://dev.azure.com/contoso/_apis/projects",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			gotAgent = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(200, `{"count":1,"value":[{"name":"webshop"}]}`), nil
		})

	var out struct {
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	err := client.GetJSON(context.Background(), "https://dev.azure.com/contoso/_apis/projects?api-version=7.1", &out)
	require.NoError(t, err)

	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte(":s3cr3t")), gotAuth)
	assert.Equal(t, "devopsfox", gotAgent)
	require.Len(t, out.Value, 1)
	assert.Equal(t, "webshop", out.Value[0].Name)
}

func TestGetJSONReturnsAPIError(t *testing.T) {
	client, mt := newMockedClient(t)
	mt.RegisterResponder(http.MethodGet, "https://dev.azure.com/contoso/_apis/missing",
		httpmock.NewStringResponder(404, `{"message":"not found"}`))
	mt.RegisterResponder(http.MethodGet, "https://dev.azure.com/contoso/_apis/locked",
		httpmock.NewStringResponder(401, ``))

	err := client.GetJSON(context.Background(), "https://dev.azure.com/contoso/_apis/missing", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "not found")
	assert.NotErrorIs(t, err, ErrUnauthorized)

	err = client.GetJSON(context.Background(), "https://dev.azure.com/contoso/_apis/locked", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotContains(t, err.Error(), "s3cr3t")
}

func TestGetJSONMalformedPayload(t *testing.T) {
	client, mt := newMockedClient(t)
	mt.RegisterResponder(http.MethodGet, "https://dev.azure.com/contoso/_apis/projects",
		httpmock.NewStringResponder(200, `{"value": [`))

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), "https://dev.azure.com/contoso/_apis/projects", &out)
	assert.Error(t, err)
}

func TestPostJSON(t *testing.T) {
	client, mt := newMockedClient(t)

	var gotBody map[string]string
	var gotContentType string
	mt.RegisterResponder(http.MethodPost, "https://dev.azure.com/contoso/webshop/_apis/wit/wiql",
		func(req *http.Request) (*http.Response, error) {
			gotContentType = req.Header.Get("Content-Type")
			raw, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(raw, &gotBody)
			return httpmock.NewStringResponse(200, `{"workItems":[{"id":7}]}`), nil
		})

	var out struct {
		WorkItems []struct {
			ID int `json:"id"`
		} `json:"workItems"`
	}
	err := client.PostJSON(context.Background(), "https://dev.azure.com/contoso/webshop/_apis/wit/wiql?api-version=7.1",
		map[string]string{"query": "Select [System.Id] From WorkItems"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Select [System.Id] From WorkItems", gotBody["query"])
	require.Len(t, out.WorkItems, 1)
	assert.Equal(t, 7, out.WorkItems[0].ID)
}

func TestGetJSONRetriesServerErrorsOnly(t *testing.T) {
	client := NewDevOpsClient("contoso", "s3cr3t", DevOpsClientOptions{Timeout: 5 * time.Second, Retries: 1})
	mt := httpmock.NewMockTransport()
	client.HTTPClient().Transport = mt

	flaky := 0
	mt.RegisterResponder(http.MethodGet, "https://dev.azure.com/contoso/_apis/flaky",
		func(req *http.Request) (*http.Response, error) {
			flaky++
			if flaky == 1 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, `{"message":"busy"}`), nil
			}
			return httpmock.NewStringResponse(200, `{"count":0,"value":[]}`), nil
		})
	mt.RegisterResponder(http.MethodGet, "https://dev.azure.com/contoso/_apis/missing",
		httpmock.NewStringResponder(http.StatusNotFound, `{"message":"not found"}`))

	require.NoError(t, client.GetJSON(context.Background(), "https://dev.azure.com/contoso/_apis/flaky", nil))
	assert.Equal(t, 2, flaky)

	err := client.GetJSON(context.Background(), "https://dev.azure.com/contoso/_apis/missing", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, 3, mt.GetTotalCallCount())
}
