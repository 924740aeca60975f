package devops

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/BishopFox/devopsfox/internal"
)

// Warning is a fetch failure that was folded into an empty contribution.
type Warning struct {
	Organization string
	ResourceType ResourceType
	Scope        string
	Err          error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: failed to fetch %s for %s: %v", w.Organization, w.ResourceType.Title(), w.Scope, w.Err)
}

// ScopeError attributes a failure to a nested scope unit, e.g. one
// repository while collecting pull requests for a project.
type ScopeError struct {
	Scope string
	Err   error
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Scope, e.Err)
}

func (e *ScopeError) Unwrap() error {
	return e.Err
}

const organizationScope = "organization"

type valueList[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// getValues decodes the "value" collection of a list response. A missing or
// null collection is an empty result.
func getValues[T any](ctx context.Context, client *internal.DevOpsClient, url string) ([]T, error) {
	var list valueList[T]
	if err := client.GetJSON(ctx, url, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func apiQuery(version string, extra ...string) url.Values {
	q := url.Values{}
	q.Set("api-version", version)
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q
}

type scopeResult[T any] struct {
	scope   string
	records []T
	err     error
}

// fetchPerScope runs fetch once per scope unit, at most MaxGoroutines at a
// time. Results keep the order of scopes whatever the completion order, and
// one unit failing never cancels the others.
func fetchPerScope[S any, T any](ctx context.Context, m *InventoryModule, resourceType ResourceType, scopes []S, label func(S) string, fetch func(context.Context, S) ([]T, error)) ([]T, []Warning) {
	if len(scopes) == 0 {
		return nil, nil
	}

	results := make([]scopeResult[T], len(scopes))
	wg := new(sync.WaitGroup)
	semaphore := make(chan struct{}, m.Config.MaxGoroutines)

	m.CommandCounter.Add(len(scopes))
	for i, scope := range scopes {
		i, scope := i, scope
		wg.Add(1)
		go func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			m.CommandCounter.Start()
			records, err := fetch(ctx, scope)
			m.CommandCounter.Finish(err != nil)
			results[i] = scopeResult[T]{scope: label(scope), records: records, err: err}
		}()
	}
	wg.Wait()

	return foldResults(m, resourceType, results)
}

// fetchOrganization is fetchPerScope for a single organization-wide call.
func fetchOrganization[T any](ctx context.Context, m *InventoryModule, resourceType ResourceType, fetch func(context.Context) ([]T, error)) ([]T, []Warning) {
	return fetchPerScope(ctx, m, resourceType, []string{organizationScope}, func(s string) string { return s },
		func(ctx context.Context, _ string) ([]T, error) { return fetch(ctx) })
}

// foldResults concatenates the records in scope order and turns every
// failure into a Warning. Records returned next to an error (from nested
// scope units that did succeed) are kept.
func foldResults[T any](m *InventoryModule, resourceType ResourceType, results []scopeResult[T]) ([]T, []Warning) {
	var records []T
	var warnings []Warning
	for _, r := range results {
		records = append(records, r.records...)
		if r.err == nil {
			continue
		}
		for _, w := range m.warningsFor(resourceType, r.scope, r.err) {
			m.Log.Warnf("Failed to fetch %s for %s in organization %s: %v", w.ResourceType.Title(), w.Scope, w.Organization, w.Err)
			warnings = append(warnings, w)
		}
	}
	return records, warnings
}

func (m *InventoryModule) warningsFor(resourceType ResourceType, scope string, err error) []Warning {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	warnings := make([]Warning, 0, len(errs))
	for _, e := range errs {
		w := Warning{
			Organization: m.Credential.Organization,
			ResourceType: resourceType,
			Scope:        scope,
			Err:          e,
		}
		var scoped *ScopeError
		if errors.As(e, &scoped) {
			w.Scope = scoped.Scope
			w.Err = scoped.Err
		}
		warnings = append(warnings, w)
	}
	return warnings
}
