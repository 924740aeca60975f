package devops

import (
	"bytes"
	"strings"
	"time"

	"github.com/BishopFox/devopsfox/internal"
	"github.com/aws/smithy-go/ptr"
	"github.com/goccy/go-json"
)

// apiTime accepts the timestamp shapes the service emits (with or without
// zone, with fractional seconds, null) and renders them as RFC3339 UTC.
type apiTime struct {
	t time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (a *apiTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	// An unreadable timestamp leaves the field empty instead of failing the page.
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		internal.TxtLog.WithField("module", "decode").Warnf("Ignoring non-string timestamp %s", b)
		return nil
	}
	if s == "" {
		return nil
	}
	for _, layout := range apiTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			a.t = t
			return nil
		}
	}
	internal.TxtLog.WithField("module", "decode").Warnf("Ignoring unrecognized timestamp %q", s)
	return nil
}

func (a apiTime) String() string {
	if a.t.IsZero() {
		return ""
	}
	return a.t.UTC().Format(time.RFC3339)
}

// identityRef is how the service embeds users.
type identityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

func (i *identityRef) name() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.UniqueName
}

type rawProject struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	State          string  `json:"state"`
	Visibility     string  `json:"visibility"`
	URL            string  `json:"url"`
	LastUpdateTime apiTime `json:"lastUpdateTime"`
}

func decodeProject(organization string, raw rawProject) Project {
	return Project{
		Organization:   organization,
		ID:             raw.ID,
		Name:           raw.Name,
		Description:    ptr.ToString(raw.Description),
		State:          raw.State,
		Visibility:     raw.Visibility,
		URL:            raw.URL,
		LastUpdateTime: raw.LastUpdateTime.String(),
	}
}

type rawRepository struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	DefaultBranch *string `json:"defaultBranch"`
	Size          *int64  `json:"size"`
	RemoteURL     string  `json:"remoteUrl"`
	WebURL        string  `json:"webUrl"`
	IsDisabled    *bool   `json:"isDisabled"`
}

func decodeRepository(project string, raw rawRepository) Repository {
	return Repository{
		Project:       project,
		ID:            raw.ID,
		Name:          raw.Name,
		DefaultBranch: ptr.ToString(raw.DefaultBranch),
		Size:          ptr.ToInt64(raw.Size),
		RemoteURL:     raw.RemoteURL,
		WebURL:        raw.WebURL,
		IsDisabled:    ptr.ToBool(raw.IsDisabled),
	}
}

type rawPipeline struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Folder   string `json:"folder"`
	Revision int    `json:"revision"`
	URL      string `json:"url"`
}

func decodePipeline(project string, raw rawPipeline) Pipeline {
	return Pipeline{
		Project:  project,
		ID:       raw.ID,
		Name:     raw.Name,
		Folder:   raw.Folder,
		Revision: raw.Revision,
		URL:      raw.URL,
	}
}

type rawWiki struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	MappedPath string `json:"mappedPath"`
	RemoteURL  string `json:"remoteUrl"`
}

func decodeWiki(project string, raw rawWiki) Wiki {
	return Wiki{
		Project:    project,
		ID:         raw.ID,
		Name:       raw.Name,
		Type:       raw.Type,
		MappedPath: raw.MappedPath,
		RemoteURL:  raw.RemoteURL,
	}
}

type rawBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func decodeBoard(project string, raw rawBoard) Board {
	return Board{
		Project: project,
		ID:      raw.ID,
		Name:    raw.Name,
		URL:     raw.URL,
	}
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

// workItemAssignee is an identity object on current API versions and a
// plain "Name <mail>" string on older ones.
type workItemAssignee string

func (w *workItemAssignee) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) || len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*w = workItemAssignee(s)
		return nil
	}
	var ref identityRef
	if err := json.Unmarshal(trimmed, &ref); err != nil {
		return err
	}
	*w = workItemAssignee(ref.name())
	return nil
}

type rawWorkItem struct {
	ID     int `json:"id"`
	Fields struct {
		Title         string           `json:"System.Title"`
		WorkItemType  string           `json:"System.WorkItemType"`
		State         string           `json:"System.State"`
		AssignedTo    workItemAssignee `json:"System.AssignedTo"`
		AreaPath      string           `json:"System.AreaPath"`
		IterationPath string           `json:"System.IterationPath"`
		CreatedDate   apiTime          `json:"System.CreatedDate"`
		ChangedDate   apiTime          `json:"System.ChangedDate"`
	} `json:"fields"`
}

var workItemFields = []string{
	"System.Id",
	"System.Title",
	"System.WorkItemType",
	"System.State",
	"System.AssignedTo",
	"System.AreaPath",
	"System.IterationPath",
	"System.CreatedDate",
	"System.ChangedDate",
}

func decodeWorkItem(project string, raw rawWorkItem) WorkItem {
	return WorkItem{
		Project:       project,
		ID:            raw.ID,
		Title:         raw.Fields.Title,
		WorkItemType:  raw.Fields.WorkItemType,
		State:         raw.Fields.State,
		AssignedTo:    string(raw.Fields.AssignedTo),
		AreaPath:      raw.Fields.AreaPath,
		IterationPath: raw.Fields.IterationPath,
		CreatedDate:   raw.Fields.CreatedDate.String(),
		ChangedDate:   raw.Fields.ChangedDate.String(),
	}
}

type rawTestPlan struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	State     string       `json:"state"`
	AreaPath  string       `json:"areaPath"`
	Iteration string       `json:"iteration"`
	Owner     *identityRef `json:"owner"`
	StartDate apiTime      `json:"startDate"`
	EndDate   apiTime      `json:"endDate"`
}

func decodeTestPlan(project string, raw rawTestPlan) TestPlan {
	return TestPlan{
		Project:   project,
		ID:        raw.ID,
		Name:      raw.Name,
		State:     raw.State,
		AreaPath:  raw.AreaPath,
		Iteration: raw.Iteration,
		Owner:     raw.Owner.name(),
		StartDate: raw.StartDate.String(),
		EndDate:   raw.EndDate.String(),
	}
}

type rawDashboard struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	OwnerID     string            `json:"ownerId"`
	Widgets     []json.RawMessage `json:"widgets"`
}

// dashboardList tolerates both the "value" and the older
// "dashboardEntries" collection names.
type dashboardList struct {
	Value            []rawDashboard `json:"value"`
	DashboardEntries []rawDashboard `json:"dashboardEntries"`
}

func (d dashboardList) entries() []rawDashboard {
	if len(d.Value) > 0 {
		return d.Value
	}
	return d.DashboardEntries
}

func decodeDashboard(project string, raw rawDashboard) Dashboard {
	return Dashboard{
		Project:     project,
		ID:          raw.ID,
		Name:        raw.Name,
		Description: ptr.ToString(raw.Description),
		OwnerID:     raw.OwnerID,
		WidgetCount: len(raw.Widgets),
	}
}

type rawFeed struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	URL             string  `json:"url"`
	UpstreamEnabled *bool   `json:"upstreamEnabled"`
	Project         *struct {
		Name string `json:"name"`
	} `json:"project"`
}

func decodeFeed(raw rawFeed) ArtifactFeed {
	feed := ArtifactFeed{
		ID:              raw.ID,
		Name:            raw.Name,
		Description:     ptr.ToString(raw.Description),
		URL:             raw.URL,
		UpstreamEnabled: ptr.ToBool(raw.UpstreamEnabled),
	}
	if raw.Project != nil {
		feed.FeedProject = raw.Project.Name
	}
	return feed
}

type rawAgentPool struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawAgent struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	Status        string `json:"status"`
	Enabled       bool   `json:"enabled"`
	OSDescription string `json:"osDescription"`
}

func decodeAgent(pool rawAgentPool, raw rawAgent) Agent {
	return Agent{
		PoolName:      pool.Name,
		PoolID:        pool.ID,
		ID:            raw.ID,
		Name:          raw.Name,
		Version:       raw.Version,
		Status:        raw.Status,
		Enabled:       raw.Enabled,
		OSDescription: raw.OSDescription,
	}
}

type rawServiceEndpoint struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	URL           string `json:"url"`
	Authorization *struct {
		Scheme string `json:"scheme"`
	} `json:"authorization"`
	IsShared  bool         `json:"isShared"`
	IsReady   bool         `json:"isReady"`
	CreatedBy *identityRef `json:"createdBy"`
}

func decodeServiceEndpoint(project string, raw rawServiceEndpoint) ServiceEndpoint {
	endpoint := ServiceEndpoint{
		Project:   project,
		ID:        raw.ID,
		Name:      raw.Name,
		Type:      raw.Type,
		URL:       raw.URL,
		IsShared:  raw.IsShared,
		IsReady:   raw.IsReady,
		CreatedBy: raw.CreatedBy.name(),
	}
	if raw.Authorization != nil {
		endpoint.AuthScheme = raw.Authorization.Scheme
	}
	return endpoint
}

type rawReleaseDefinition struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Path              string       `json:"path"`
	ReleaseNameFormat string       `json:"releaseNameFormat"`
	CreatedBy         *identityRef `json:"createdBy"`
	CreatedOn         apiTime      `json:"createdOn"`
	ModifiedOn        apiTime      `json:"modifiedOn"`
}

func decodeReleasePipeline(project string, raw rawReleaseDefinition) ReleasePipeline {
	return ReleasePipeline{
		Project:           project,
		ID:                raw.ID,
		Name:              raw.Name,
		Path:              raw.Path,
		ReleaseNameFormat: raw.ReleaseNameFormat,
		CreatedBy:         raw.CreatedBy.name(),
		CreatedOn:         raw.CreatedOn.String(),
		ModifiedOn:        raw.ModifiedOn.String(),
	}
}

// rawVariable deliberately has no value field.
type rawVariable struct {
	IsSecret bool `json:"isSecret"`
}

type rawVariableGroup struct {
	ID          int                    `json:"id"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description *string                `json:"description"`
	Variables   map[string]rawVariable `json:"variables"`
	ModifiedOn  apiTime                `json:"modifiedOn"`
}

func decodeVariableGroup(project string, raw rawVariableGroup) VariableGroup {
	group := VariableGroup{
		Project:       project,
		ID:            raw.ID,
		Name:          raw.Name,
		Type:          raw.Type,
		Description:   ptr.ToString(raw.Description),
		VariableCount: len(raw.Variables),
		ModifiedOn:    raw.ModifiedOn.String(),
	}
	for _, v := range raw.Variables {
		if v.IsSecret {
			group.SecretCount++
		}
	}
	return group
}

type rawTeam struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func decodeTeam(project string, raw rawTeam, memberCount int) Team {
	return Team{
		Project:     project,
		ID:          raw.ID,
		Name:        raw.Name,
		Description: ptr.ToString(raw.Description),
		MemberCount: memberCount,
	}
}

type rawExtension struct {
	ExtensionID   string `json:"extensionId"`
	ExtensionName string `json:"extensionName"`
	PublisherID   string `json:"publisherId"`
	PublisherName string `json:"publisherName"`
	Version       string `json:"version"`
	Flags         string `json:"flags"`
	InstallState  *struct {
		Flags       string  `json:"flags"`
		LastUpdated apiTime `json:"lastUpdated"`
	} `json:"installState"`
	LastPublished apiTime `json:"lastPublished"`
}

func decodeExtension(raw rawExtension) Extension {
	ext := Extension{
		ExtensionID:   raw.ExtensionID,
		ExtensionName: raw.ExtensionName,
		PublisherID:   raw.PublisherID,
		PublisherName: raw.PublisherName,
		Version:       raw.Version,
		Flags:         raw.Flags,
		LastUpdated:   raw.LastPublished.String(),
	}
	if raw.InstallState != nil {
		ext.InstallState = raw.InstallState.Flags
		if updated := raw.InstallState.LastUpdated.String(); updated != "" {
			ext.LastUpdated = updated
		}
	}
	return ext
}

type rawPullRequest struct {
	PullRequestID int          `json:"pullRequestId"`
	Title         string       `json:"title"`
	Status        string       `json:"status"`
	CreatedBy     *identityRef `json:"createdBy"`
	CreationDate  apiTime      `json:"creationDate"`
	ClosedDate    apiTime      `json:"closedDate"`
	SourceRefName string       `json:"sourceRefName"`
	TargetRefName string       `json:"targetRefName"`
	IsDraft       bool         `json:"isDraft"`
	MergeStatus   string       `json:"mergeStatus"`
}

func decodePullRequest(project, repository string, raw rawPullRequest) PullRequest {
	return PullRequest{
		Project:      project,
		Repository:   repository,
		ID:           raw.PullRequestID,
		Title:        raw.Title,
		Status:       raw.Status,
		CreatedBy:    raw.CreatedBy.name(),
		CreationDate: raw.CreationDate.String(),
		ClosedDate:   raw.ClosedDate.String(),
		SourceBranch: strings.TrimPrefix(raw.SourceRefName, "refs/heads/"),
		TargetBranch: strings.TrimPrefix(raw.TargetRefName, "refs/heads/"),
		IsDraft:      raw.IsDraft,
		MergeStatus:  raw.MergeStatus,
	}
}
