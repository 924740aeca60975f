package devops

import (
	"context"
	"fmt"
	"strconv"
)

func (m *InventoryModule) fetchAgentPools(ctx context.Context) ([]rawAgentPool, error) {
	url := m.Client.BuildURL(m.Config.Hosts.Core, "", "distributedtask/pools", apiQuery(m.Config.APIVersion))
	return getValues[rawAgentPool](ctx, m.Client, url)
}

func (m *InventoryModule) fetchPoolAgents(ctx context.Context, pool rawAgentPool) ([]Agent, error) {
	area := "distributedtask/pools/" + strconv.Itoa(pool.ID) + "/agents"
	url := m.Client.BuildURL(m.Config.Hosts.Core, "", area, apiQuery(m.Config.APIVersion))
	raw, err := getValues[rawAgent](ctx, m.Client, url)
	if err != nil {
		return nil, err
	}
	agents := make([]Agent, 0, len(raw))
	for _, a := range raw {
		agents = append(agents, decodeAgent(pool, a))
	}
	return agents, nil
}

func poolLabel(pool rawAgentPool) string {
	return fmt.Sprintf("pool %s (%d)", pool.Name, pool.ID)
}
