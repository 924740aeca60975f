package devops

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/BishopFox/devopsfox/console"
	"github.com/BishopFox/devopsfox/globals"
	"github.com/BishopFox/devopsfox/internal"
	"golang.org/x/sync/errgroup"
)

// resourceTypeConcurrency bounds how many resource types are collected at
// once. Each of them fans out over scope units on its own.
const resourceTypeConcurrency = 4

type OrganizationInventory struct {
	Organization string
	CollectedAt  time.Time

	Projects         []Project
	Repositories     []Repository
	Pipelines        []Pipeline
	Wikis            []Wiki
	Boards           []Board
	WorkItems        []WorkItem
	TestPlans        []TestPlan
	Dashboards       []Dashboard
	ArtifactFeeds    []ArtifactFeed
	Agents           []Agent
	ServiceEndpoints []ServiceEndpoint
	ReleasePipelines []ReleasePipeline
	VariableGroups   []VariableGroup
	Teams            []Team
	Extensions       []Extension
	PullRequests     []PullRequest

	Warnings []Warning
}

type InventoryModule struct {
	Credential Credential
	Config     Config
	Client     *internal.DevOpsClient
	Log        internal.Logger

	// ShowStatus draws the status spinner on StatusOut while collecting.
	ShowStatus     bool
	StatusOut      io.Writer
	CommandCounter console.CommandCounter
}

func NewInventoryModule(cred Credential, cfg Config) *InventoryModule {
	cfg = cfg.withDefaults()
	return &InventoryModule{
		Credential: cred,
		Config:     cfg,
		Client: internal.NewDevOpsClient(cred.Organization, cred.Token, internal.DevOpsClientOptions{
			Timeout: cfg.Timeout,
			Retries: cfg.Retries,
		}),
		Log:       internal.NewLogger(globals.DEVOPS_INVENTORY_MODULE_NAME),
		StatusOut: os.Stderr,
	}
}

// Collect builds the inventory of one organization. Failures never abort the
// run; they end up in Warnings next to whatever could be collected.
func Collect(ctx context.Context, cred Credential, cfg Config) OrganizationInventory {
	return NewInventoryModule(cred, cfg).Collect(ctx)
}

type collectStep func(ctx context.Context, inv *OrganizationInventory, projects []string) []Warning

func (m *InventoryModule) Collect(ctx context.Context) OrganizationInventory {
	inv := OrganizationInventory{
		Organization: m.Credential.Organization,
		CollectedAt:  time.Now().UTC(),
	}

	m.Log.Infof("Enumerating Azure DevOps resources for organization %s.", m.Credential.Organization)

	if m.ShowStatus {
		spinnerDone := make(chan bool)
		go console.SpinUntil(m.StatusOut, globals.DEVOPS_INVENTORY_MODULE_NAME, &m.CommandCounter, spinnerDone, "scope units")
		defer func() {
			spinnerDone <- true
			<-spinnerDone
		}()
	}

	var projectWarnings []Warning
	inv.Projects, projectWarnings = fetchOrganization(ctx, m, ResourceProjects, m.fetchProjects)
	projects := inv.ProjectNames()

	// Project-scoped steps see an empty scope set when no project was found
	// and issue no calls at all.
	steps := []collectStep{
		m.collectRepositories,
		m.collectPipelines,
		m.collectWikis,
		m.collectBoards,
		m.collectWorkItems,
		m.collectTestPlans,
		m.collectDashboards,
		m.collectArtifactFeeds,
		m.collectAgents,
		m.collectServiceEndpoints,
		m.collectReleasePipelines,
		m.collectVariableGroups,
		m.collectTeams,
		m.collectExtensions,
		m.collectPullRequests,
	}

	stepWarnings := make([][]Warning, len(steps))
	var g errgroup.Group
	g.SetLimit(resourceTypeConcurrency)
	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			stepWarnings[i] = step(ctx, &inv, projects)
			return nil
		})
	}
	_ = g.Wait()

	inv.Warnings = append(inv.Warnings, projectWarnings...)
	for _, w := range stepWarnings {
		inv.Warnings = append(inv.Warnings, w...)
	}

	m.Log.Successf("Collected %d projects and %d resources for organization %s (%d warnings).",
		len(inv.Projects), inv.resourceCount(), inv.Organization, len(inv.Warnings))
	return inv
}

func projectLabel(p string) string { return p }

func (m *InventoryModule) collectRepositories(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.Repositories, w = fetchPerScope(ctx, m, ResourceRepositories, projects, projectLabel, m.fetchRepositories)
	return w
}

func (m *InventoryModule) collectPipelines(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.Pipelines, w = fetchPerScope(ctx, m, ResourcePipelines, projects, projectLabel, m.fetchPipelines)
	return w
}

func (m *InventoryModule) collectWikis(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.Wikis, w = fetchPerScope(ctx, m, ResourceWikis, projects, projectLabel, m.fetchWikis)
	return w
}

func (m *InventoryModule) collectBoards(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.Boards, w = fetchPerScope(ctx, m, ResourceBoards, projects, projectLabel, m.fetchBoards)
	return w
}

func (m *InventoryModule) collectWorkItems(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.WorkItems, w = fetchPerScope(ctx, m, ResourceWorkItems, projects, projectLabel, m.fetchWorkItems)
	return w
}

func (m *InventoryModule) collectTestPlans(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.TestPlans, w = fetchPerScope(ctx, m, ResourceTestPlans, projects, projectLabel, m.fetchTestPlans)
	return w
}

func (m *InventoryModule) collectDashboards(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.Dashboards, w = fetchPerScope(ctx, m, ResourceDashboards, projects, projectLabel, m.fetchDashboards)
	return w
}

func (m *InventoryModule) collectServiceEndpoints(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.ServiceEndpoints, w = fetchPerScope(ctx, m, ResourceServiceEndpoints, projects, projectLabel, m.fetchServiceEndpoints)
	return w
}

func (m *InventoryModule) collectReleasePipelines(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.ReleasePipelines, w = fetchPerScope(ctx, m, ResourceReleasePipelines, projects, projectLabel, m.fetchReleasePipelines)
	return w
}

func (m *InventoryModule) collectVariableGroups(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.VariableGroups, w = fetchPerScope(ctx, m, ResourceVariableGroups, projects, projectLabel, m.fetchVariableGroups)
	return w
}

func (m *InventoryModule) collectTeams(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.Teams, w = fetchPerScope(ctx, m, ResourceTeams, projects, projectLabel, m.fetchTeams)
	return w
}

func (m *InventoryModule) collectPullRequests(ctx context.Context, inv *OrganizationInventory, projects []string) (w []Warning) {
	inv.PullRequests, w = fetchPerScope(ctx, m, ResourcePullRequests, projects, projectLabel, m.fetchPullRequests)
	return w
}

func (m *InventoryModule) collectArtifactFeeds(ctx context.Context, inv *OrganizationInventory, _ []string) (w []Warning) {
	inv.ArtifactFeeds, w = fetchOrganization(ctx, m, ResourceArtifactFeeds, m.fetchArtifactFeeds)
	return w
}

func (m *InventoryModule) collectExtensions(ctx context.Context, inv *OrganizationInventory, _ []string) (w []Warning) {
	inv.Extensions, w = fetchOrganization(ctx, m, ResourceExtensions, m.fetchExtensions)
	return w
}

// collectAgents lists the pools first, then the agents of every pool.
func (m *InventoryModule) collectAgents(ctx context.Context, inv *OrganizationInventory, _ []string) []Warning {
	pools, warnings := fetchOrganization(ctx, m, ResourceAgents, m.fetchAgentPools)
	agents, poolWarnings := fetchPerScope(ctx, m, ResourceAgents, pools, poolLabel, m.fetchPoolAgents)
	inv.Agents = agents
	return append(warnings, poolWarnings...)
}

// ProjectNames returns the project names in collection order.
func (inv *OrganizationInventory) ProjectNames() []string {
	names := make([]string, 0, len(inv.Projects))
	for _, p := range inv.Projects {
		names = append(names, p.Name)
	}
	return internal.RemoveDuplicateStr(names)
}

type TypeCount struct {
	Type  ResourceType
	Count int
}

// Counts lists every resource type in presentation order.
func (inv *OrganizationInventory) Counts() []TypeCount {
	counts := make([]TypeCount, 0, len(ResourceTypes))
	for _, t := range inv.Tables() {
		counts = append(counts, TypeCount{Type: ResourceType(t.Name), Count: len(t.Body)})
	}
	return counts
}

func (inv *OrganizationInventory) resourceCount() int {
	total := 0
	for _, c := range inv.Counts() {
		if c.Type != ResourceProjects {
			total += c.Count
		}
	}
	return total
}

// markdownColumns is the curated subset of fields shown per type in the
// markdown document.
var markdownColumns = map[ResourceType][]string{
	ResourceProjects:         {"Name", "State", "Visibility", "LastUpdateTime"},
	ResourceRepositories:     {"Project", "Name", "DefaultBranch", "Size", "IsDisabled"},
	ResourcePipelines:        {"Project", "Name", "Folder", "Revision"},
	ResourceWikis:            {"Project", "Name", "Type"},
	ResourceBoards:           {"Project", "Name"},
	ResourceWorkItems:        {"Project", "ID", "Title", "WorkItemType", "State", "AssignedTo", "ChangedDate"},
	ResourceTestPlans:        {"Project", "Name", "State", "Owner"},
	ResourceDashboards:       {"Project", "Name", "WidgetCount"},
	ResourceArtifactFeeds:    {"Name", "FeedProject", "UpstreamEnabled"},
	ResourceAgents:           {"PoolName", "Name", "Version", "Status", "Enabled"},
	ResourceServiceEndpoints: {"Project", "Name", "Type", "AuthScheme", "IsShared"},
	ResourceReleasePipelines: {"Project", "Name", "Path", "ModifiedOn"},
	ResourceVariableGroups:   {"Project", "Name", "VariableCount", "SecretCount"},
	ResourceTeams:            {"Project", "Name", "MemberCount"},
	ResourceExtensions:       {"ExtensionName", "PublisherName", "Version", "InstallState"},
	ResourcePullRequests:     {"Project", "Repository", "ID", "Title", "Status", "CreatedBy", "CreationDate"},
}

func newTable[T Record](resourceType ResourceType, records []T) internal.TableFile {
	return internal.TableFile{
		Name:      string(resourceType),
		TableCols: markdownColumns[resourceType],
		Header:    tableHeader[T](),
		Body:      tableRows(records),
	}
}

// Tables returns one table per resource type in presentation order, empty
// ones included.
func (inv *OrganizationInventory) Tables() []internal.TableFile {
	pullRequests := newTable(ResourcePullRequests, inv.PullRequests)
	pullRequests.SortCol = "CreationDate"
	pullRequests.MaxRows = globals.DEVOPS_MARKDOWN_PULL_REQUEST_ROWS

	return []internal.TableFile{
		newTable(ResourceProjects, inv.Projects),
		newTable(ResourceRepositories, inv.Repositories),
		newTable(ResourcePipelines, inv.Pipelines),
		newTable(ResourceWikis, inv.Wikis),
		newTable(ResourceBoards, inv.Boards),
		newTable(ResourceWorkItems, inv.WorkItems),
		newTable(ResourceTestPlans, inv.TestPlans),
		newTable(ResourceDashboards, inv.Dashboards),
		newTable(ResourceArtifactFeeds, inv.ArtifactFeeds),
		newTable(ResourceAgents, inv.Agents),
		newTable(ResourceServiceEndpoints, inv.ServiceEndpoints),
		newTable(ResourceReleasePipelines, inv.ReleasePipelines),
		newTable(ResourceVariableGroups, inv.VariableGroups),
		newTable(ResourceTeams, inv.Teams),
		newTable(ResourceExtensions, inv.Extensions),
		pullRequests,
	}
}

// projectScopedRecords lists every record carrying a project back-reference.
func (inv *OrganizationInventory) projectScopedRecords() []ProjectScoped {
	var out []ProjectScoped
	appendAll := func(n int, at func(int) ProjectScoped) {
		for i := 0; i < n; i++ {
			out = append(out, at(i))
		}
	}
	appendAll(len(inv.Repositories), func(i int) ProjectScoped { return inv.Repositories[i] })
	appendAll(len(inv.Pipelines), func(i int) ProjectScoped { return inv.Pipelines[i] })
	appendAll(len(inv.Wikis), func(i int) ProjectScoped { return inv.Wikis[i] })
	appendAll(len(inv.Boards), func(i int) ProjectScoped { return inv.Boards[i] })
	appendAll(len(inv.WorkItems), func(i int) ProjectScoped { return inv.WorkItems[i] })
	appendAll(len(inv.TestPlans), func(i int) ProjectScoped { return inv.TestPlans[i] })
	appendAll(len(inv.Dashboards), func(i int) ProjectScoped { return inv.Dashboards[i] })
	appendAll(len(inv.ServiceEndpoints), func(i int) ProjectScoped { return inv.ServiceEndpoints[i] })
	appendAll(len(inv.ReleasePipelines), func(i int) ProjectScoped { return inv.ReleasePipelines[i] })
	appendAll(len(inv.VariableGroups), func(i int) ProjectScoped { return inv.VariableGroups[i] })
	appendAll(len(inv.Teams), func(i int) ProjectScoped { return inv.Teams[i] })
	appendAll(len(inv.PullRequests), func(i int) ProjectScoped { return inv.PullRequests[i] })
	return out
}

// StrayProjects returns project names referenced by records but missing
// from Projects. It is empty for every inventory built by Collect.
func (inv *OrganizationInventory) StrayProjects() []string {
	known := inv.ProjectNames()
	var stray []string
	for _, r := range inv.projectScopedRecords() {
		if !internal.Contains(r.ProjectName(), known) && !internal.Contains(r.ProjectName(), stray) {
			stray = append(stray, r.ProjectName())
		}
	}
	return stray
}
