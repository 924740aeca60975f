package devops

import (
	"context"

	"github.com/BishopFox/devopsfox/internal"
	"github.com/patrickmn/go-cache"
)

func (m *InventoryModule) fetchRepositories(ctx context.Context, project string) ([]Repository, error) {
	cacheKey := internal.CacheKey("devops-repositories", m.Credential.Organization, project)
	if cached, found := internal.Cache.Get(cacheKey); found {
		return cached.([]Repository), nil
	}

	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "git/repositories", apiQuery(m.Config.APIVersion))
	raw, err := getValues[rawRepository](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	repositories := make([]Repository, 0, len(raw))
	for _, r := range raw {
		repositories = append(repositories, decodeRepository(project, r))
	}

	internal.Cache.Set(cacheKey, repositories, cache.DefaultExpiration)
	return repositories, nil
}
