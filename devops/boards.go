package devops

import (
	"context"

	"github.com/BishopFox/devopsfox/globals"
)

// fetchBoards lists the boards of the project's default team.
func (m *InventoryModule) fetchBoards(ctx context.Context, project string) ([]Board, error) {
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "work/boards", apiQuery(m.Config.APIVersion))
	raw, err := getValues[rawBoard](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	boards := make([]Board, 0, len(raw))
	for _, b := range raw {
		boards = append(boards, decodeBoard(project, b))
	}
	return boards, nil
}

func (m *InventoryModule) fetchTestPlans(ctx context.Context, project string) ([]TestPlan, error) {
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "testplan/plans", apiQuery(m.Config.APIVersion))
	raw, err := getValues[rawTestPlan](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	plans := make([]TestPlan, 0, len(raw))
	for _, p := range raw {
		plans = append(plans, decodeTestPlan(project, p))
	}
	return plans, nil
}

func (m *InventoryModule) fetchDashboards(ctx context.Context, project string) ([]Dashboard, error) {
	query := apiQuery(m.Config.version(globals.DEVOPS_DASHBOARDS_API_VERSION))
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "dashboard/dashboards", query)
	var list dashboardList
	if err := m.Client.GetJSON(ctx, url, &list); err != nil {
		return nil, err
	}
	entries := list.entries()
	dashboards := make([]Dashboard, 0, len(entries))
	for _, d := range entries {
		dashboards = append(dashboards, decodeDashboard(project, d))
	}
	return dashboards, nil
}
