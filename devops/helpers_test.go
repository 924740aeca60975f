package devops

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/BishopFox/devopsfox/internal"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/mock"
)

const testOrg = "contoso"

func newTestModule(t *testing.T, cfg Config) (*InventoryModule, *httpmock.MockTransport) {
	t.Helper()
	internal.Cache.Flush()
	t.Cleanup(internal.Cache.Flush)

	cfg.Retries = 0
	m := NewInventoryModule(Credential{Organization: testOrg, Token: "test-token"}, cfg)
	mt := httpmock.NewMockTransport()
	m.Client.HTTPClient().Transport = mt
	return m, mt
}

func coreURL(project, area string) string {
	if project == "" {
		return fmt.Sprintf("https://dev.azure.com/%s/_apis/%s", testOrg, area)
	}
	return fmt.Sprintf("https://dev.azure.com/%s/%s/_apis/%s", testOrg, project, area)
}

func valueResponder(items ...string) httpmock.Responder {
	return httpmock.NewStringResponder(200, fmt.Sprintf(`{"count":%d,"value":[%s]}`, len(items), strings.Join(items, ",")))
}

var emptyResponder = valueResponder()

func notFoundResponder() httpmock.Responder {
	return httpmock.NewStringResponder(http.StatusNotFound, `{"message":"resource not found"}`)
}

func projectJSON(name string) string {
	return fmt.Sprintf(`{"id":"%s-id","name":"%s","state":"wellFormed","visibility":"private","lastUpdateTime":"2024-03-01T10:00:00.123Z"}`, name, name)
}

type mockPrompter struct {
	mock.Mock
}

func (p *mockPrompter) Input(message string) (string, error) {
	args := p.Called(message)
	return args.String(0), args.Error(1)
}

func (p *mockPrompter) InputPassword(message string) (string, error) {
	args := p.Called(message)
	return args.String(0), args.Error(1)
}

func (p *mockPrompter) Confirm(message string, defaultChoice bool) (bool, error) {
	args := p.Called(message, defaultChoice)
	return args.Bool(0), args.Error(1)
}
