package devops

import (
	"strconv"
)

// ResourceType names one inventoried category. The value doubles as the
// artifact suffix and sheet name on export.
type ResourceType string

const (
	ResourceProjects         ResourceType = "Projects"
	ResourceRepositories     ResourceType = "Repositories"
	ResourcePipelines        ResourceType = "Pipelines"
	ResourceWikis            ResourceType = "Wikis"
	ResourceBoards           ResourceType = "Boards"
	ResourceWorkItems        ResourceType = "WorkItems"
	ResourceTestPlans        ResourceType = "TestPlans"
	ResourceDashboards       ResourceType = "Dashboards"
	ResourceArtifactFeeds    ResourceType = "ArtifactFeeds"
	ResourceAgents           ResourceType = "Agents"
	ResourceServiceEndpoints ResourceType = "ServiceEndpoints"
	ResourceReleasePipelines ResourceType = "ReleasePipelines"
	ResourceVariableGroups   ResourceType = "VariableGroups"
	ResourceTeams            ResourceType = "Teams"
	ResourceExtensions       ResourceType = "Extensions"
	ResourcePullRequests     ResourceType = "PullRequests"
)

// ResourceTypes is the fixed presentation order.
var ResourceTypes = []ResourceType{
	ResourceProjects,
	ResourceRepositories,
	ResourcePipelines,
	ResourceWikis,
	ResourceBoards,
	ResourceWorkItems,
	ResourceTestPlans,
	ResourceDashboards,
	ResourceArtifactFeeds,
	ResourceAgents,
	ResourceServiceEndpoints,
	ResourceReleasePipelines,
	ResourceVariableGroups,
	ResourceTeams,
	ResourceExtensions,
	ResourcePullRequests,
}

var resourceTitles = map[ResourceType]string{
	ResourceProjects:         "Projects",
	ResourceRepositories:     "Repositories",
	ResourcePipelines:        "Pipelines",
	ResourceWikis:            "Wikis",
	ResourceBoards:           "Boards",
	ResourceWorkItems:        "Work Items",
	ResourceTestPlans:        "Test Plans",
	ResourceDashboards:       "Dashboards",
	ResourceArtifactFeeds:    "Artifact Feeds",
	ResourceAgents:           "Agents",
	ResourceServiceEndpoints: "Service Endpoints",
	ResourceReleasePipelines: "Release Pipelines",
	ResourceVariableGroups:   "Variable Groups",
	ResourceTeams:            "Teams",
	ResourceExtensions:       "Extensions",
	ResourcePullRequests:     "Pull Requests",
}

func (r ResourceType) Title() string {
	if t, ok := resourceTitles[r]; ok {
		return t
	}
	return string(r)
}

// Record is a flat, tabular resource row. Columns and Values line up.
type Record interface {
	Columns() []string
	Values() []string
}

// ProjectScoped records point back at their project by name only.
type ProjectScoped interface {
	ProjectName() string
}

type Project struct {
	Organization   string
	ID             string
	Name           string
	Description    string
	State          string
	Visibility     string
	URL            string
	LastUpdateTime string
}

func (Project) Columns() []string {
	return []string{"Organization", "ID", "Name", "Description", "State", "Visibility", "URL", "LastUpdateTime"}
}

func (p Project) Values() []string {
	return []string{p.Organization, p.ID, p.Name, p.Description, p.State, p.Visibility, p.URL, p.LastUpdateTime}
}

type Repository struct {
	Project       string
	ID            string
	Name          string
	DefaultBranch string
	Size          int64
	RemoteURL     string
	WebURL        string
	IsDisabled    bool
}

func (Repository) Columns() []string {
	return []string{"Project", "ID", "Name", "DefaultBranch", "Size", "RemoteURL", "WebURL", "IsDisabled"}
}

func (r Repository) Values() []string {
	return []string{r.Project, r.ID, r.Name, r.DefaultBranch, strconv.FormatInt(r.Size, 10), r.RemoteURL, r.WebURL, strconv.FormatBool(r.IsDisabled)}
}

func (r Repository) ProjectName() string { return r.Project }

type Pipeline struct {
	Project  string
	ID       int
	Name     string
	Folder   string
	Revision int
	URL      string
}

func (Pipeline) Columns() []string {
	return []string{"Project", "ID", "Name", "Folder", "Revision", "URL"}
}

func (p Pipeline) Values() []string {
	return []string{p.Project, strconv.Itoa(p.ID), p.Name, p.Folder, strconv.Itoa(p.Revision), p.URL}
}

func (p Pipeline) ProjectName() string { return p.Project }

type Wiki struct {
	Project    string
	ID         string
	Name       string
	Type       string
	MappedPath string
	RemoteURL  string
}

func (Wiki) Columns() []string {
	return []string{"Project", "ID", "Name", "Type", "MappedPath", "RemoteURL"}
}

func (w Wiki) Values() []string {
	return []string{w.Project, w.ID, w.Name, w.Type, w.MappedPath, w.RemoteURL}
}

func (w Wiki) ProjectName() string { return w.Project }

type Board struct {
	Project string
	ID      string
	Name    string
	URL     string
}

func (Board) Columns() []string {
	return []string{"Project", "ID", "Name", "URL"}
}

func (b Board) Values() []string {
	return []string{b.Project, b.ID, b.Name, b.URL}
}

func (b Board) ProjectName() string { return b.Project }

type WorkItem struct {
	Project       string
	ID            int
	Title         string
	WorkItemType  string
	State         string
	AssignedTo    string
	AreaPath      string
	IterationPath string
	CreatedDate   string
	ChangedDate   string
}

func (WorkItem) Columns() []string {
	return []string{"Project", "ID", "Title", "WorkItemType", "State", "AssignedTo", "AreaPath", "IterationPath", "CreatedDate", "ChangedDate"}
}

func (w WorkItem) Values() []string {
	return []string{w.Project, strconv.Itoa(w.ID), w.Title, w.WorkItemType, w.State, w.AssignedTo, w.AreaPath, w.IterationPath, w.CreatedDate, w.ChangedDate}
}

func (w WorkItem) ProjectName() string { return w.Project }

type TestPlan struct {
	Project   string
	ID        int
	Name      string
	State     string
	AreaPath  string
	Iteration string
	Owner     string
	StartDate string
	EndDate   string
}

func (TestPlan) Columns() []string {
	return []string{"Project", "ID", "Name", "State", "AreaPath", "Iteration", "Owner", "StartDate", "EndDate"}
}

func (t TestPlan) Values() []string {
	return []string{t.Project, strconv.Itoa(t.ID), t.Name, t.State, t.AreaPath, t.Iteration, t.Owner, t.StartDate, t.EndDate}
}

func (t TestPlan) ProjectName() string { return t.Project }

type Dashboard struct {
	Project     string
	ID          string
	Name        string
	Description string
	OwnerID     string
	WidgetCount int
}

func (Dashboard) Columns() []string {
	return []string{"Project", "ID", "Name", "Description", "OwnerID", "WidgetCount"}
}

func (d Dashboard) Values() []string {
	return []string{d.Project, d.ID, d.Name, d.Description, d.OwnerID, strconv.Itoa(d.WidgetCount)}
}

func (d Dashboard) ProjectName() string { return d.Project }

// ArtifactFeed is organization scoped. FeedProject is only set for
// project-scoped feeds and is informational.
type ArtifactFeed struct {
	ID              string
	Name            string
	Description     string
	URL             string
	UpstreamEnabled bool
	FeedProject     string
}

func (ArtifactFeed) Columns() []string {
	return []string{"ID", "Name", "Description", "URL", "UpstreamEnabled", "FeedProject"}
}

func (f ArtifactFeed) Values() []string {
	return []string{f.ID, f.Name, f.Description, f.URL, strconv.FormatBool(f.UpstreamEnabled), f.FeedProject}
}

type Agent struct {
	PoolName      string
	PoolID        int
	ID            int
	Name          string
	Version       string
	Status        string
	Enabled       bool
	OSDescription string
}

func (Agent) Columns() []string {
	return []string{"PoolName", "PoolID", "ID", "Name", "Version", "Status", "Enabled", "OSDescription"}
}

func (a Agent) Values() []string {
	return []string{a.PoolName, strconv.Itoa(a.PoolID), strconv.Itoa(a.ID), a.Name, a.Version, a.Status, strconv.FormatBool(a.Enabled), a.OSDescription}
}

type ServiceEndpoint struct {
	Project    string
	ID         string
	Name       string
	Type       string
	URL        string
	AuthScheme string
	IsShared   bool
	IsReady    bool
	CreatedBy  string
}

func (ServiceEndpoint) Columns() []string {
	return []string{"Project", "ID", "Name", "Type", "URL", "AuthScheme", "IsShared", "IsReady", "CreatedBy"}
}

func (s ServiceEndpoint) Values() []string {
	return []string{s.Project, s.ID, s.Name, s.Type, s.URL, s.AuthScheme, strconv.FormatBool(s.IsShared), strconv.FormatBool(s.IsReady), s.CreatedBy}
}

func (s ServiceEndpoint) ProjectName() string { return s.Project }

type ReleasePipeline struct {
	Project           string
	ID                int
	Name              string
	Path              string
	ReleaseNameFormat string
	CreatedBy         string
	CreatedOn         string
	ModifiedOn        string
}

func (ReleasePipeline) Columns() []string {
	return []string{"Project", "ID", "Name", "Path", "ReleaseNameFormat", "CreatedBy", "CreatedOn", "ModifiedOn"}
}

func (r ReleasePipeline) Values() []string {
	return []string{r.Project, strconv.Itoa(r.ID), r.Name, r.Path, r.ReleaseNameFormat, r.CreatedBy, r.CreatedOn, r.ModifiedOn}
}

func (r ReleasePipeline) ProjectName() string { return r.Project }

// VariableGroup carries variable names only through its counts. Values,
// secret or not, are never stored.
type VariableGroup struct {
	Project       string
	ID            int
	Name          string
	Type          string
	Description   string
	VariableCount int
	SecretCount   int
	ModifiedOn    string
}

func (VariableGroup) Columns() []string {
	return []string{"Project", "ID", "Name", "Type", "Description", "VariableCount", "SecretCount", "ModifiedOn"}
}

func (v VariableGroup) Values() []string {
	return []string{v.Project, strconv.Itoa(v.ID), v.Name, v.Type, v.Description, strconv.Itoa(v.VariableCount), strconv.Itoa(v.SecretCount), v.ModifiedOn}
}

func (v VariableGroup) ProjectName() string { return v.Project }

// UnknownMemberCount marks a team whose member listing failed.
const UnknownMemberCount = -1

type Team struct {
	Project     string
	ID          string
	Name        string
	Description string
	MemberCount int
}

func (Team) Columns() []string {
	return []string{"Project", "ID", "Name", "Description", "MemberCount"}
}

func (t Team) Values() []string {
	return []string{t.Project, t.ID, t.Name, t.Description, strconv.Itoa(t.MemberCount)}
}

func (t Team) ProjectName() string { return t.Project }

type Extension struct {
	ExtensionID   string
	ExtensionName string
	PublisherID   string
	PublisherName string
	Version       string
	Flags         string
	InstallState  string
	LastUpdated   string
}

func (Extension) Columns() []string {
	return []string{"ExtensionID", "ExtensionName", "PublisherID", "PublisherName", "Version", "Flags", "InstallState", "LastUpdated"}
}

func (e Extension) Values() []string {
	return []string{e.ExtensionID, e.ExtensionName, e.PublisherID, e.PublisherName, e.Version, e.Flags, e.InstallState, e.LastUpdated}
}

type PullRequest struct {
	Project      string
	Repository   string
	ID           int
	Title        string
	Status       string
	CreatedBy    string
	CreationDate string
	ClosedDate   string
	SourceBranch string
	TargetBranch string
	IsDraft      bool
	MergeStatus  string
}

func (PullRequest) Columns() []string {
	return []string{"Project", "Repository", "ID", "Title", "Status", "CreatedBy", "CreationDate", "ClosedDate", "SourceBranch", "TargetBranch", "IsDraft", "MergeStatus"}
}

func (p PullRequest) Values() []string {
	return []string{p.Project, p.Repository, strconv.Itoa(p.ID), p.Title, p.Status, p.CreatedBy, p.CreationDate, p.ClosedDate, p.SourceBranch, p.TargetBranch, strconv.FormatBool(p.IsDraft), p.MergeStatus}
}

func (p PullRequest) ProjectName() string { return p.Project }

func tableRows[T Record](records []T) [][]string {
	body := make([][]string, 0, len(records))
	for _, r := range records {
		body = append(body, r.Values())
	}
	return body
}

func tableHeader[T Record]() []string {
	var zero T
	return zero.Columns()
}
