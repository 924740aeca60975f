package devops

import (
	"context"
)

func (m *InventoryModule) projectsURL(extra ...string) string {
	return m.Client.BuildURL(m.Config.Hosts.Core, "", "projects", apiQuery(m.Config.APIVersion, extra...))
}

func (m *InventoryModule) fetchProjects(ctx context.Context) ([]Project, error) {
	raw, err := getValues[rawProject](ctx, m.Client, m.projectsURL())
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(raw))
	for _, p := range raw {
		projects = append(projects, decodeProject(m.Credential.Organization, p))
	}
	return projects, nil
}
