package devops

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BishopFox/devopsfox/internal"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/text"
	"golang.org/x/exp/slices"
)

const (
	workItemLinesPerGroup    = 10
	pullRequestLinesPerGroup = 5
	maxLineTitleLength       = 80
)

var (
	sectionColor = color.New(color.FgCyan, color.Bold)
	groupColor   = color.New(color.FgYellow)
	faintColor   = color.New(color.Faint)
)

type reportItem struct {
	// keys holds one entry per grouping level, outermost first.
	keys []string
	line string
}

type reportGroup struct {
	header string
	lines  []string
}

// Render writes the grouped report of one inventory to w, followed by the
// per type summary table and the warning count.
func Render(w io.Writer, inv *OrganizationInventory, wrap bool) {
	sectionColor.Fprintf(w, "\nAzure DevOps inventory for %s\n", inv.Organization)
	fmt.Fprintf(w, "Collected at %s\n", inv.CollectedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	renderProjects(w, inv.Projects)
	renderSection(w, ResourceRepositories, 0, mapItems(inv.Repositories, func(r Repository) reportItem {
		return item(details(r.Name, r.DefaultBranch, humanSize(r.Size), flag(r.IsDisabled, "disabled")), r.Project)
	}))
	renderSection(w, ResourcePipelines, 0, mapItems(inv.Pipelines, func(p Pipeline) reportItem {
		return item(details(p.Name, p.Folder, "rev "+strconv.Itoa(p.Revision)), p.Project)
	}))
	renderSection(w, ResourceWikis, 0, mapItems(inv.Wikis, func(wk Wiki) reportItem {
		return item(details(wk.Name, wk.Type), wk.Project)
	}))
	renderSection(w, ResourceBoards, 0, mapItems(inv.Boards, func(b Board) reportItem {
		return item(b.Name, b.Project)
	}))
	renderSection(w, ResourceWorkItems, workItemLinesPerGroup, mapItems(inv.WorkItems, func(wi WorkItem) reportItem {
		line := fmt.Sprintf("#%d %s", wi.ID, text.Trim(wi.Title, maxLineTitleLength))
		return item(details(line, wi.WorkItemType, wi.State, wi.AssignedTo), wi.Project)
	}))
	renderSection(w, ResourceTestPlans, 0, mapItems(inv.TestPlans, func(t TestPlan) reportItem {
		return item(details(t.Name, t.State, t.Owner), t.Project)
	}))
	renderSection(w, ResourceDashboards, 0, mapItems(inv.Dashboards, func(d Dashboard) reportItem {
		return item(details(d.Name, fmt.Sprintf("%d widgets", d.WidgetCount)), d.Project)
	}))
	renderSection(w, ResourceArtifactFeeds, 0, mapItems(inv.ArtifactFeeds, func(f ArtifactFeed) reportItem {
		scope := f.FeedProject
		if scope == "" {
			scope = "organization"
		}
		return item(details(f.Name, flag(f.UpstreamEnabled, "upstream sources")), scope)
	}))
	renderSection(w, ResourceAgents, 0, mapItems(inv.Agents, func(a Agent) reportItem {
		return item(details(a.Name, a.Version, a.Status, flag(!a.Enabled, "disabled"), a.OSDescription), a.PoolName)
	}))
	renderSection(w, ResourceServiceEndpoints, 0, mapItems(inv.ServiceEndpoints, func(s ServiceEndpoint) reportItem {
		return item(details(s.Name, s.Type, s.AuthScheme, flag(s.IsShared, "shared")), s.Project)
	}))
	renderSection(w, ResourceReleasePipelines, 0, mapItems(inv.ReleasePipelines, func(r ReleasePipeline) reportItem {
		return item(details(r.Name, r.Path), r.Project)
	}))
	renderSection(w, ResourceVariableGroups, 0, mapItems(inv.VariableGroups, func(v VariableGroup) reportItem {
		return item(details(v.Name, fmt.Sprintf("%d variables", v.VariableCount), fmt.Sprintf("%d secret", v.SecretCount)), v.Project)
	}))
	renderSection(w, ResourceTeams, 0, mapItems(inv.Teams, func(t Team) reportItem {
		members := "members unknown"
		if t.MemberCount != UnknownMemberCount {
			members = fmt.Sprintf("%d members", t.MemberCount)
		}
		return item(details(t.Name, members), t.Project)
	}))
	renderSection(w, ResourceExtensions, 0, mapItems(inv.Extensions, func(e Extension) reportItem {
		return item(details(e.ExtensionName, e.Version, e.InstallState), e.PublisherName)
	}))
	renderSection(w, ResourcePullRequests, pullRequestLinesPerGroup, mapItems(inv.PullRequests, func(pr PullRequest) reportItem {
		line := fmt.Sprintf("!%d %s", pr.ID, text.Trim(pr.Title, maxLineTitleLength))
		return item(details(line, pr.Repository, pr.SourceBranch+" -> "+pr.TargetBranch, pr.CreatedBy), pr.Status, pr.Project)
	}))

	renderSummary(w, inv, wrap)
}

func renderProjects(w io.Writer, projects []Project) {
	sectionColor.Fprintf(w, "\n%s\n", ResourceProjects.Title())
	if len(projects) == 0 {
		fmt.Fprintln(w, "  No projects found")
		return
	}
	for _, p := range projects {
		fmt.Fprintf(w, "  - %s\n", details(p.Name, p.Visibility, p.State, p.LastUpdateTime))
	}
	fmt.Fprintf(w, "  Total projects: %d\n", len(projects))
}

// renderSection prints one resource type. limit caps the lines per group,
// zero means unbounded.
func renderSection(w io.Writer, resourceType ResourceType, limit int, items []reportItem) {
	title := resourceType.Title()
	sectionColor.Fprintf(w, "\n%s\n", title)
	if len(items) == 0 {
		fmt.Fprintf(w, "  No %s found\n", strings.ToLower(title))
		return
	}

	for _, g := range groupItems(items) {
		groupColor.Fprintf(w, "  [%s] (%d)\n", g.header, len(g.lines))
		shown := g.lines
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		for _, line := range shown {
			fmt.Fprintf(w, "    - %s\n", line)
		}
		if hidden := len(g.lines) - len(shown); hidden > 0 {
			faintColor.Fprintf(w, "    +%d more\n", hidden)
		}
	}
	fmt.Fprintf(w, "  Total %s: %d\n", strings.ToLower(title), len(items))
}

// groupItems groups by the composite key. Groups come out in first
// appearance order, level by level, so an outer key keeps all its inner
// groups together.
func groupItems(items []reportItem) []reportGroup {
	ordered := slices.Clone(items)
	levels := 0
	for _, it := range items {
		if len(it.keys) > levels {
			levels = len(it.keys)
		}
	}
	// Stable sort by first appearance rank of each level, innermost first.
	for level := levels - 1; level >= 0; level-- {
		rank := make(map[string]int)
		for _, it := range items {
			k := keyAt(it, level)
			if _, ok := rank[k]; !ok {
				rank[k] = len(rank)
			}
		}
		slices.SortStableFunc(ordered, func(a, b reportItem) int {
			return rank[keyAt(a, level)] - rank[keyAt(b, level)]
		})
	}

	var groups []reportGroup
	index := make(map[string]int)
	for _, it := range ordered {
		header := strings.Join(it.keys, " / ")
		i, ok := index[header]
		if !ok {
			i = len(groups)
			index[header] = i
			groups = append(groups, reportGroup{header: header})
		}
		groups[i].lines = append(groups[i].lines, it.line)
	}
	return groups
}

func keyAt(it reportItem, level int) string {
	if level < len(it.keys) {
		return it.keys[level]
	}
	return ""
}

func renderSummary(w io.Writer, inv *OrganizationInventory, wrap bool) {
	sectionColor.Fprintf(w, "\nSummary\n")
	body := make([][]string, 0, len(ResourceTypes))
	for _, c := range inv.Counts() {
		body = append(body, []string{c.Type.Title(), strconv.Itoa(c.Count)})
	}
	internal.PrintTableToScreen(w, []string{"Resource Type", "Count"}, body, wrap)

	if len(inv.Warnings) == 0 {
		fmt.Fprintln(w, "Warnings: 0")
		return
	}
	color.New(color.FgYellow).Fprintf(w, "Warnings: %d (see the warning stream or the log file for details)\n", len(inv.Warnings))
}

func mapItems[T any](records []T, fn func(T) reportItem) []reportItem {
	items := make([]reportItem, 0, len(records))
	for _, r := range records {
		items = append(items, fn(r))
	}
	return items
}

func item(line string, keys ...string) reportItem {
	for i, k := range keys {
		if k == "" {
			keys[i] = "(none)"
		}
	}
	return reportItem{keys: keys, line: line}
}

// details renders "first (a, b)" skipping empty parts.
func details(first string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return first
	}
	return fmt.Sprintf("%s (%s)", first, strings.Join(kept, ", "))
}

func flag(set bool, label string) string {
	if set {
		return label
	}
	return ""
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes <= 0 {
		return ""
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
