package devops

import (
	"context"

	"github.com/BishopFox/devopsfox/globals"
)

func (m *InventoryModule) fetchArtifactFeeds(ctx context.Context) ([]ArtifactFeed, error) {
	query := apiQuery(m.Config.version(globals.DEVOPS_FEEDS_API_VERSION))
	url := m.Client.BuildURL(m.Config.Hosts.Feeds, "", "packaging/feeds", query)
	raw, err := getValues[rawFeed](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	feeds := make([]ArtifactFeed, 0, len(raw))
	for _, f := range raw {
		feeds = append(feeds, decodeFeed(f))
	}
	return feeds, nil
}

func (m *InventoryModule) fetchExtensions(ctx context.Context) ([]Extension, error) {
	query := apiQuery(m.Config.version(globals.DEVOPS_EXTENSIONS_API_VERSION))
	url := m.Client.BuildURL(m.Config.Hosts.Extensions, "", "extensionmanagement/installedextensions", query)
	raw, err := getValues[rawExtension](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	extensions := make([]Extension, 0, len(raw))
	for _, e := range raw {
		extensions = append(extensions, decodeExtension(e))
	}
	return extensions, nil
}
