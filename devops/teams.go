package devops

import (
	"context"
	"net/url"

	"github.com/BishopFox/devopsfox/globals"
)

// fetchTeams lists the project's teams and counts the members of each. A
// failed member listing leaves the team with UnknownMemberCount.
func (m *InventoryModule) fetchTeams(ctx context.Context, project string) ([]Team, error) {
	area := "projects/" + url.PathEscape(project) + "/teams"
	teamsURL := m.Client.BuildURL(m.Config.Hosts.Core, "", area, apiQuery(m.Config.version(globals.DEVOPS_TEAMS_API_VERSION)))
	raw, err := getValues[rawTeam](ctx, m.Client, teamsURL)
	if err != nil {
		return nil, err
	}

	teams := make([]Team, 0, len(raw))
	for _, t := range raw {
		teams = append(teams, decodeTeam(project, t, m.countTeamMembers(ctx, area, t)))
	}
	return teams, nil
}

func (m *InventoryModule) countTeamMembers(ctx context.Context, teamsArea string, team rawTeam) int {
	membersURL := m.Client.BuildURL(m.Config.Hosts.Core, "", teamsArea+"/"+url.PathEscape(team.ID)+"/members",
		apiQuery(m.Config.version(globals.DEVOPS_TEAM_MEMBERS_API_VERSION)))
	members, err := getValues[struct{}](ctx, m.Client, membersURL)
	if err != nil {
		m.Log.Debugf("member count for team %s unavailable: %v", team.Name, err)
		return UnknownMemberCount
	}
	return len(members)
}
