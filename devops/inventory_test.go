package devops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BishopFox/devopsfox/internal"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectEmptyOrganization(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"), emptyResponder)
	mt.RegisterResponder(http.MethodGet, coreURL("", "distributedtask/pools"),
		valueResponder(`{"id":1,"name":"Default"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("", "distributedtask/pools/1/agents"),
		valueResponder(`{"id":10,"name":"build-01","version":"3.232.0","status":"online","enabled":true,"osDescription":"Linux"}`))
	mt.RegisterResponder(http.MethodGet, "https://feeds.dev.azure.com/contoso/_apis/packaging/feeds",
		valueResponder(`{"id":"f1","name":"shared","upstreamEnabled":true}`))
	mt.RegisterResponder(http.MethodGet, "https://extmgmt.dev.azure.com/contoso/_apis/extensionmanagement/installedextensions",
		valueResponder(`{"extensionId":"sonar","extensionName":"SonarCloud","publisherId":"sonarsource","publisherName":"SonarSource","version":"1.0.0"}`))

	inv := m.Collect(context.Background())

	assert.Equal(t, testOrg, inv.Organization)
	assert.Empty(t, inv.Projects)
	assert.Empty(t, inv.Repositories)
	assert.Empty(t, inv.WorkItems)
	assert.Empty(t, inv.PullRequests)
	assert.Empty(t, inv.Teams)
	assert.Len(t, inv.Agents, 1)
	assert.Len(t, inv.ArtifactFeeds, 1)
	assert.Len(t, inv.Extensions, 1)
	assert.Empty(t, inv.Warnings)

	// Projects, pools, agents of one pool, feeds and extensions. No
	// project-scoped call is made.
	assert.Equal(t, 5, mt.GetTotalCallCount())

	var out bytes.Buffer
	Render(&out, &inv, false)
	assert.Contains(t, out.String(), "No projects found")
	assert.Contains(t, out.String(), "build-01")
}

func TestCollectProjectMembership(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())
	mt.RegisterNoResponder(emptyResponder)

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"),
		valueResponder(projectJSON("webshop"), projectJSON("billing")))
	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories"),
		valueResponder(`{"id":"repo-a","name":"api","defaultBranch":"refs/heads/main","size":2048}`))
	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories/repo-a/pullrequests"),
		valueResponder(`{"pullRequestId":5,"title":"Add cart","status":"active","sourceRefName":"refs/heads/cart","targetRefName":"refs/heads/main"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("billing", "pipelines"),
		valueResponder(`{"id":3,"name":"invoices-ci","folder":"\\","revision":2}`))
	mt.RegisterResponder(http.MethodGet, coreURL("billing", "wiki/wikis"),
		valueResponder(`{"id":"w1","name":"billing.wiki","type":"projectWiki"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("", "projects/billing/teams"),
		valueResponder(`{"id":"t1","name":"billing Team"}`))

	inv := m.Collect(context.Background())

	assert.Equal(t, []string{"webshop", "billing"}, inv.ProjectNames())
	assert.Empty(t, inv.StrayProjects())
	assert.Empty(t, inv.Warnings)

	require.Len(t, inv.Repositories, 1)
	assert.Equal(t, "webshop", inv.Repositories[0].Project)
	assert.Equal(t, "refs/heads/main", inv.Repositories[0].DefaultBranch)
	require.Len(t, inv.PullRequests, 1)
	assert.Equal(t, "api", inv.PullRequests[0].Repository)
	assert.Equal(t, "cart", inv.PullRequests[0].SourceBranch)
	require.Len(t, inv.Pipelines, 1)
	assert.Equal(t, "billing", inv.Pipelines[0].Project)
	require.Len(t, inv.Teams, 1)
	assert.Equal(t, 0, inv.Teams[0].MemberCount)

	for _, r := range inv.projectScopedRecords() {
		assert.True(t, internal.Contains(r.ProjectName(), inv.ProjectNames()), "unknown project %q", r.ProjectName())
	}
}

func TestStrayProjects(t *testing.T) {
	inv := OrganizationInventory{
		Projects:     []Project{{Name: "webshop"}},
		Repositories: []Repository{{Project: "webshop", Name: "api"}, {Project: "ghost", Name: "x"}},
		Boards:       []Board{{Project: "ghost", Name: "b"}},
	}
	assert.Equal(t, []string{"ghost"}, inv.StrayProjects())
}

func TestCollectIsolatesFailures(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())
	mt.RegisterNoResponder(emptyResponder)

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"),
		valueResponder(projectJSON("alpha"), projectJSON("beta"), projectJSON("gamma")))
	mt.RegisterResponder(http.MethodGet, coreURL("alpha", "pipelines"), valueResponder(`{"id":1,"name":"alpha-ci"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("beta", "pipelines"), notFoundResponder())
	mt.RegisterResponder(http.MethodGet, coreURL("gamma", "pipelines"), valueResponder(`{"id":2,"name":"gamma-ci"}`))

	inv := m.Collect(context.Background())

	require.Len(t, inv.Pipelines, 2)
	assert.Equal(t, "alpha-ci", inv.Pipelines[0].Name)
	assert.Equal(t, "gamma-ci", inv.Pipelines[1].Name)

	require.Len(t, inv.Warnings, 1)
	w := inv.Warnings[0]
	assert.Equal(t, testOrg, w.Organization)
	assert.Equal(t, ResourcePipelines, w.ResourceType)
	assert.Equal(t, "beta", w.Scope)
	var apiErr *internal.APIError
	require.True(t, errors.As(w.Err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, w.String(), "failed to fetch Pipelines for beta")
}

func TestCollectProjectListingFailure(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())
	mt.RegisterNoResponder(emptyResponder)
	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"), httpmock.NewStringResponder(http.StatusUnauthorized, ``))

	inv := m.Collect(context.Background())

	assert.Empty(t, inv.Projects)
	require.NotEmpty(t, inv.Warnings)
	assert.Equal(t, ResourceProjects, inv.Warnings[0].ResourceType)
	assert.Equal(t, organizationScope, inv.Warnings[0].Scope)
	assert.ErrorIs(t, inv.Warnings[0].Err, internal.ErrUnauthorized)
}

func TestFetchWorkItemsBatching(t *testing.T) {
	subtests := []struct {
		name        string
		limit       int
		returnedIDs int
		wantBatches []int
	}{
		{name: "single batch", limit: 100, returnedIDs: 250, wantBatches: []int{100}},
		{name: "multiple batches", limit: 450, returnedIDs: 500, wantBatches: []int{200, 200, 50}},
		{name: "fewer ids than limit", limit: 100, returnedIDs: 3, wantBatches: []int{3}},
		{name: "no ids", limit: 100, returnedIDs: 0, wantBatches: nil},
	}

	for _, s := range subtests {
		t.Run(s.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.WorkItemLimit = s.limit
			m, mt := newTestModule(t, cfg)

			var gotTop string
			mt.RegisterResponder(http.MethodPost, coreURL("webshop", "wit/wiql"),
				func(req *http.Request) (*http.Response, error) {
					gotTop = req.URL.Query().Get("$top")
					refs := make([]string, 0, s.returnedIDs)
					for id := 1; id <= s.returnedIDs; id++ {
						refs = append(refs, fmt.Sprintf(`{"id":%d}`, id))
					}
					return httpmock.NewStringResponse(200, `{"workItems":[`+strings.Join(refs, ",")+`]}`), nil
				})

			var mu sync.Mutex
			var batches []int
			mt.RegisterResponder(http.MethodGet, coreURL("webshop", "wit/workitems"),
				func(req *http.Request) (*http.Response, error) {
					ids := strings.Split(req.URL.Query().Get("ids"), ",")
					mu.Lock()
					batches = append(batches, len(ids))
					mu.Unlock()
					items := make([]string, 0, len(ids))
					for _, id := range ids {
						items = append(items, fmt.Sprintf(`{"id":%s,"fields":{"System.Title":"item %s","System.State":"Active"}}`, id, id))
					}
					return httpmock.NewStringResponse(200, `{"value":[`+strings.Join(items, ",")+`]}`), nil
				})

			workItems, err := m.fetchWorkItems(context.Background(), "webshop")
			require.NoError(t, err)

			assert.Equal(t, strconv.Itoa(s.limit), gotTop)
			assert.Equal(t, s.wantBatches, batches)
			total := 0
			for _, b := range s.wantBatches {
				total += b
			}
			assert.Len(t, workItems, total)
			for _, w := range workItems {
				assert.Equal(t, "webshop", w.Project)
			}
		})
	}
}

func TestBatchIDs(t *testing.T) {
	ids := make([]int, 450)
	for i := range ids {
		ids[i] = i + 1
	}
	batches := batchIDs(ids, 200)
	require.Len(t, batches, 3)
	assert.Equal(t, 1, batches[0][0])
	assert.Equal(t, 201, batches[1][0])
	assert.Equal(t, []int{401, 450}, []int{batches[2][0], batches[2][len(batches[2])-1]})
	assert.Nil(t, batchIDs(nil, 200))
}

func TestFetchPullRequestsUnion(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())

	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories"),
		valueResponder(`{"id":"repo-a","name":"api"}`, `{"id":"repo-b","name":"web"}`, `{"id":"repo-c","name":"legacy"}`))

	byStatus := func(active, completed string) httpmock.Responder {
		return func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("$top") != "100" {
				return httpmock.NewStringResponse(400, `{"message":"bad $top"}`), nil
			}
			switch req.URL.Query().Get("searchCriteria.status") {
			case "active":
				return httpmock.NewStringResponse(200, `{"value":[`+active+`]}`), nil
			case "completed":
				return httpmock.NewStringResponse(200, `{"value":[`+completed+`]}`), nil
			}
			return httpmock.NewStringResponse(400, `{"message":"unexpected status"}`), nil
		}
	}
	pr := func(id int, status string) string {
		return fmt.Sprintf(`{"pullRequestId":%d,"title":"pr %d","status":"%s","creationDate":"2024-02-0%dT08:00:00Z"}`, id, id, status, id%9+1)
	}

	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories/repo-a/pullrequests"),
		byStatus(pr(1, "active")+","+pr(2, "active"), pr(2, "completed")+","+pr(3, "completed")))
	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories/repo-b/pullrequests"),
		byStatus(pr(10, "active"), pr(11, "completed")))
	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories/repo-c/pullrequests"),
		notFoundResponder())

	var inv OrganizationInventory
	warnings := m.collectPullRequests(context.Background(), &inv, []string{"webshop"})

	got := map[string][]int{}
	for _, p := range inv.PullRequests {
		assert.Equal(t, "webshop", p.Project)
		got[p.Repository] = append(got[p.Repository], p.ID)
	}
	assert.Equal(t, map[string][]int{"api": {1, 2, 3}, "web": {10, 11}}, got)

	require.Len(t, warnings, 1)
	assert.Equal(t, ResourcePullRequests, warnings[0].ResourceType)
	assert.Equal(t, "webshop/legacy", warnings[0].Scope)
}

func TestFetchTeamsMemberCountFallback(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects/webshop/teams"),
		valueResponder(`{"id":"t1","name":"webshop Team"}`, `{"id":"t2","name":"Ops"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("", "projects/webshop/teams/t1/members"),
		valueResponder(`{"identity":{"displayName":"Ada"}}`, `{"identity":{"displayName":"Grace"}}`, `{"identity":{"displayName":"Linus"}}`))
	mt.RegisterResponder(http.MethodGet, coreURL("", "projects/webshop/teams/t2/members"),
		httpmock.NewStringResponder(http.StatusForbidden, `{"message":"denied"}`))

	teams, err := m.fetchTeams(context.Background(), "webshop")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 3, teams[0].MemberCount)
	assert.Equal(t, UnknownMemberCount, teams[1].MemberCount)
}

func TestCollectAgentsPerPool(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())

	mt.RegisterResponder(http.MethodGet, coreURL("", "distributedtask/pools"),
		valueResponder(`{"id":1,"name":"Azure Pipelines"}`, `{"id":2,"name":"self-hosted"}`, `{"id":3,"name":"gpu"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("", "distributedtask/pools/1/agents"),
		valueResponder(`{"id":100,"name":"Hosted Agent","enabled":true}`))
	mt.RegisterResponder(http.MethodGet, coreURL("", "distributedtask/pools/2/agents"), notFoundResponder())
	mt.RegisterResponder(http.MethodGet, coreURL("", "distributedtask/pools/3/agents"),
		valueResponder(`{"id":300,"name":"gpu-01"}`, `{"id":301,"name":"gpu-02"}`))

	var inv OrganizationInventory
	warnings := m.collectAgents(context.Background(), &inv, nil)

	require.Len(t, inv.Agents, 3)
	assert.Equal(t, "Azure Pipelines", inv.Agents[0].PoolName)
	assert.Equal(t, 1, inv.Agents[0].PoolID)
	assert.Equal(t, "gpu", inv.Agents[2].PoolName)
	assert.Equal(t, 3, inv.Agents[2].PoolID)

	require.Len(t, warnings, 1)
	assert.Equal(t, "pool self-hosted (2)", warnings[0].Scope)
}

func TestFetchRepositoriesUsesCache(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())
	mt.RegisterResponder(http.MethodGet, coreURL("webshop", "git/repositories"),
		valueResponder(`{"id":"repo-a","name":"api"}`))

	for i := 0; i < 3; i++ {
		repos, err := m.fetchRepositories(context.Background(), "webshop")
		require.NoError(t, err)
		require.Len(t, repos, 1)
	}
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestCountsFollowPresentationOrder(t *testing.T) {
	inv := OrganizationInventory{
		Projects:     []Project{{Name: "webshop"}},
		PullRequests: []PullRequest{{Project: "webshop", ID: 1}, {Project: "webshop", ID: 2}},
	}

	counts := inv.Counts()
	require.Len(t, counts, len(ResourceTypes))
	for i, c := range counts {
		assert.Equal(t, ResourceTypes[i], c.Type)
	}
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, 2, counts[len(counts)-1].Count)
	assert.Equal(t, 2, inv.resourceCount())
}

func TestCollectTreatsMissingValueAsEmpty(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())
	mt.RegisterNoResponder(emptyResponder)

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"),
		valueResponder(projectJSON("alpha"), projectJSON("beta"), projectJSON("gamma")))
	mt.RegisterResponder(http.MethodGet, coreURL("alpha", "pipelines"), httpmock.NewStringResponder(200, `{}`))
	mt.RegisterResponder(http.MethodGet, coreURL("beta", "pipelines"), httpmock.NewStringResponder(200, `{"count":0,"value":null}`))
	mt.RegisterResponder(http.MethodGet, coreURL("gamma", "pipelines"), valueResponder(`{"id":2,"name":"gamma-ci"}`))

	inv := m.Collect(context.Background())

	assert.Empty(t, inv.Warnings)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, inv.ProjectNames())
	require.Len(t, inv.Pipelines, 1)
	assert.Equal(t, "gamma", inv.Pipelines[0].Project)
	assert.Equal(t, "gamma-ci", inv.Pipelines[0].Name)
}

func TestCollectTimeoutBecomesWarning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	m, mt := newTestModule(t, cfg)
	mt.RegisterNoResponder(emptyResponder)

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"),
		valueResponder(projectJSON("alpha"), projectJSON("beta"), projectJSON("gamma")))
	mt.RegisterResponder(http.MethodGet, coreURL("alpha", "pipelines"), valueResponder(`{"id":1,"name":"alpha-ci"}`))
	mt.RegisterResponder(http.MethodGet, coreURL("beta", "pipelines"),
		func(req *http.Request) (*http.Response, error) {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(5 * time.Second):
				return httpmock.NewStringResponse(200, `{"count":1,"value":[{"id":9,"name":"too-late"}]}`), nil
			}
		})
	mt.RegisterResponder(http.MethodGet, coreURL("gamma", "pipelines"), valueResponder(`{"id":2,"name":"gamma-ci"}`))

	start := time.Now()
	inv := m.Collect(context.Background())
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, inv.Pipelines, 2)
	assert.Equal(t, "alpha-ci", inv.Pipelines[0].Name)
	assert.Equal(t, "gamma-ci", inv.Pipelines[1].Name)

	require.Len(t, inv.Warnings, 1)
	assert.Equal(t, ResourcePipelines, inv.Warnings[0].ResourceType)
	assert.Equal(t, "beta", inv.Warnings[0].Scope)
	assert.Error(t, inv.Warnings[0].Err)
}

func TestCollectKeepsRecordsWithUnreadableTimestamps(t *testing.T) {
	m, mt := newTestModule(t, DefaultConfig())
	mt.RegisterNoResponder(emptyResponder)

	mt.RegisterResponder(http.MethodGet, coreURL("", "projects"), valueResponder(
		projectJSON("webshop"),
		`{"id":"b","name":"billing","state":"wellFormed","lastUpdateTime":"last tuesday"}`,
	))

	inv := m.Collect(context.Background())

	assert.Empty(t, inv.Warnings)
	require.Len(t, inv.Projects, 2)
	assert.Equal(t, "2024-03-01T10:00:00Z", inv.Projects[0].LastUpdateTime)
	assert.Equal(t, "billing", inv.Projects[1].Name)
	assert.Equal(t, "", inv.Projects[1].LastUpdateTime)
}
