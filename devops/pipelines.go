package devops

import (
	"context"

	"github.com/BishopFox/devopsfox/globals"
)

func (m *InventoryModule) fetchPipelines(ctx context.Context, project string) ([]Pipeline, error) {
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "pipelines", apiQuery(m.Config.APIVersion))
	raw, err := getValues[rawPipeline](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	pipelines := make([]Pipeline, 0, len(raw))
	for _, p := range raw {
		pipelines = append(pipelines, decodePipeline(project, p))
	}
	return pipelines, nil
}

// Classic release definitions live on the release management host.
func (m *InventoryModule) fetchReleasePipelines(ctx context.Context, project string) ([]ReleasePipeline, error) {
	query := apiQuery(m.Config.version(globals.DEVOPS_RELEASES_API_VERSION))
	url := m.Client.BuildURL(m.Config.Hosts.Release, project, "release/definitions", query)
	raw, err := getValues[rawReleaseDefinition](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	releases := make([]ReleasePipeline, 0, len(raw))
	for _, r := range raw {
		releases = append(releases, decodeReleasePipeline(project, r))
	}
	return releases, nil
}

func (m *InventoryModule) fetchServiceEndpoints(ctx context.Context, project string) ([]ServiceEndpoint, error) {
	query := apiQuery(m.Config.version(globals.DEVOPS_SERVICE_ENDPOINTS_API_VERSION))
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "serviceendpoint/endpoints", query)
	raw, err := getValues[rawServiceEndpoint](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	endpoints := make([]ServiceEndpoint, 0, len(raw))
	for _, e := range raw {
		endpoints = append(endpoints, decodeServiceEndpoint(project, e))
	}
	return endpoints, nil
}

func (m *InventoryModule) fetchVariableGroups(ctx context.Context, project string) ([]VariableGroup, error) {
	query := apiQuery(m.Config.version(globals.DEVOPS_VARIABLE_GROUPS_API_VERSION))
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "distributedtask/variablegroups", query)
	raw, err := getValues[rawVariableGroup](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	groups := make([]VariableGroup, 0, len(raw))
	for _, g := range raw {
		groups = append(groups, decodeVariableGroup(project, g))
	}
	return groups, nil
}
