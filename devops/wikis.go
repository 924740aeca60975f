package devops

import (
	"context"
)

func (m *InventoryModule) fetchWikis(ctx context.Context, project string) ([]Wiki, error) {
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "wiki/wikis", apiQuery(m.Config.APIVersion))
	raw, err := getValues[rawWiki](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	wikis := make([]Wiki, 0, len(raw))
	for _, w := range raw {
		wikis = append(wikis, decodeWiki(project, w))
	}
	return wikis, nil
}
