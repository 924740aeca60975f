package devops

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var pullRequestStatuses = []string{"active", "completed"}

// fetchPullRequests lists the project's repositories, then the active and
// completed pull requests of each. A failing repository contributes nothing
// and is reported on its own.
func (m *InventoryModule) fetchPullRequests(ctx context.Context, project string) ([]PullRequest, error) {
	repositories, err := m.fetchRepositories(ctx, project)
	if err != nil {
		return nil, err
	}

	var pullRequests []PullRequest
	var errs []error
	for _, repo := range repositories {
		prs, err := m.fetchRepositoryPullRequests(ctx, project, repo)
		if err != nil {
			errs = append(errs, &ScopeError{Scope: fmt.Sprintf("%s/%s", project, repo.Name), Err: err})
			continue
		}
		pullRequests = append(pullRequests, prs...)
	}
	return pullRequests, errors.Join(errs...)
}

func (m *InventoryModule) fetchRepositoryPullRequests(ctx context.Context, project string, repo Repository) ([]PullRequest, error) {
	seen := make(map[int]bool)
	var pullRequests []PullRequest
	for _, status := range pullRequestStatuses {
		query := apiQuery(m.Config.APIVersion,
			"searchCriteria.status", status,
			"$top", strconv.Itoa(m.Config.PullRequestTop),
		)
		url := m.Client.BuildURL(m.Config.Hosts.Core, project, "git/repositories/"+repo.ID+"/pullrequests", query)
		raw, err := getValues[rawPullRequest](ctx, m.Client, url)
		if err != nil {
			return nil, err
		}
		for _, pr := range raw {
			if seen[pr.PullRequestID] {
				continue
			}
			seen[pr.PullRequestID] = true
			pullRequests = append(pullRequests, decodePullRequest(project, repo.Name, pr))
		}
	}
	return pullRequests, nil
}
