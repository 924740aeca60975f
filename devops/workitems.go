package devops

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BishopFox/devopsfox/globals"
)

const workItemQuery = "Select [System.Id] From WorkItems Where [System.TeamProject] = @project Order By [System.ChangedDate] DESC"

// fetchWorkItems queries the most recently changed work item ids of the
// project, keeps at most WorkItemLimit of them and reads their details in
// batches of DEVOPS_WORK_ITEM_BATCH_SIZE.
func (m *InventoryModule) fetchWorkItems(ctx context.Context, project string) ([]WorkItem, error) {
	ids, err := m.queryWorkItemIDs(ctx, project)
	if err != nil {
		return nil, err
	}

	var workItems []WorkItem
	for _, batch := range batchIDs(ids, globals.DEVOPS_WORK_ITEM_BATCH_SIZE) {
		raw, err := m.fetchWorkItemBatch(ctx, project, batch)
		if err != nil {
			return nil, err
		}
		for _, w := range raw {
			workItems = append(workItems, decodeWorkItem(project, w))
		}
	}
	return workItems, nil
}

func (m *InventoryModule) queryWorkItemIDs(ctx context.Context, project string) ([]int, error) {
	query := apiQuery(m.Config.APIVersion, "$top", strconv.Itoa(m.Config.WorkItemLimit))
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "wit/wiql", query)

	var resp wiqlResponse
	if err := m.Client.PostJSON(ctx, url, wiqlRequest{Query: workItemQuery}, &resp); err != nil {
		return nil, fmt.Errorf("work item query failed: %w", err)
	}

	ids := make([]int, 0, len(resp.WorkItems))
	for _, w := range resp.WorkItems {
		ids = append(ids, w.ID)
	}
	if len(ids) > m.Config.WorkItemLimit {
		ids = ids[:m.Config.WorkItemLimit]
	}
	return ids, nil
}

func (m *InventoryModule) fetchWorkItemBatch(ctx context.Context, project string, ids []int) ([]rawWorkItem, error) {
	idList := make([]string, len(ids))
	for i, id := range ids {
		idList[i] = strconv.Itoa(id)
	}
	query := apiQuery(m.Config.APIVersion,
		"ids", strings.Join(idList, ","),
		"fields", strings.Join(workItemFields, ","),
	)
	url := m.Client.BuildURL(m.Config.Hosts.Core, project, "wit/workitems", query)
	return getValues[rawWorkItem](ctx, m.Client, url)
}

func batchIDs(ids []int, size int) [][]int {
	var batches [][]int
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
