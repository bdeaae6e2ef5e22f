// Package gh wraps the GitHub REST API behind a small interface so the
// pipeline stages can be tested without network access. All calls share one
// rate limiter; there are no retries, a failed call surfaces once.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/time/rate"
)

// ErrNotFound reports a 404 from the API. Callers treat it as a status
// transition, not a failure.
var ErrNotFound = errors.New("repository not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Repo is the subset of repository metadata the pipeline consumes.
type Repo struct {
	Owner         string
	Name          string
	FullName      string
	Description   string
	Stars         int
	Forks         int
	OpenIssues    int
	Watchers      int
	Fork          bool
	Archived      bool
	PushedAt      time.Time
	CreatedAt     time.Time
	Language      string
	Topics        []string
	HTMLURL       string
	License       string
	OwnerType     string
	DefaultBranch string
}

// Client is the interface for all GitHub operations.
type Client interface {
	Search(ctx context.Context, query string, perPage int) ([]Repo, error)
	Get(ctx context.Context, owner, repo string) (*Repo, error)
	Contributors(ctx context.Context, owner, repo string) (count int, top string, err error)
	Readme(ctx context.Context, owner, repo string) (string, error)
	DispatchWorkflow(ctx context.Context, slug, workflowFile string, inputs map[string]any) error
}

// GitHub implements Client over the REST API.
type GitHub struct {
	api *github.Client
	lim *rate.Limiter
}

// New creates a GitHub client authenticated with token, pacing all calls at
// rps requests per second.
func New(token string, rps float64) *GitHub {
	return &GitHub{
		api: github.NewClient(nil).WithAuthToken(token),
		lim: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Search runs one repository search query, scoped to name, description, and
// readme, sorted by stars descending.
func (g *GitHub) Search(ctx context.Context, query string, perPage int) ([]Repo, error) {
	if err := g.lim.Wait(ctx); err != nil {
		return nil, err
	}

	result, _, err := g.api.Search.Repositories(ctx, query+" in:name,description,readme", &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	repos := make([]Repo, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, fromAPI(r))
	}
	return repos, nil
}

// Get fetches a single repository's metadata.
func (g *GitHub) Get(ctx context.Context, owner, repo string) (*Repo, error) {
	if err := g.lim.Wait(ctx); err != nil {
		return nil, err
	}

	r, resp, err := g.api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s/%s: %w", owner, repo, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", owner, repo, err)
	}
	out := fromAPI(r)
	return &out, nil
}

// Contributors returns the contributor count (capped at 5) and the login of
// the top contributor.
func (g *GitHub) Contributors(ctx context.Context, owner, repo string) (int, string, error) {
	if err := g.lim.Wait(ctx); err != nil {
		return 0, "", err
	}

	contribs, _, err := g.api.Repositories.ListContributors(ctx, owner, repo, &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: 5},
	})
	if err != nil {
		return 0, "", fmt.Errorf("contributors %s/%s: %w", owner, repo, err)
	}
	top := ""
	if len(contribs) > 0 {
		top = contribs[0].GetLogin()
	}
	return len(contribs), top, nil
}

// Readme returns the decoded README content of a repository.
func (g *GitHub) Readme(ctx context.Context, owner, repo string) (string, error) {
	if err := g.lim.Wait(ctx); err != nil {
		return "", err
	}

	file, resp, err := g.api.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s/%s readme: %w", owner, repo, ErrNotFound)
		}
		return "", fmt.Errorf("readme %s/%s: %w", owner, repo, err)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode readme %s/%s: %w", owner, repo, err)
	}
	return content, nil
}

// DispatchWorkflow triggers a workflow_dispatch event on the repository slug
// ("owner/name") for the given workflow file on the main branch.
func (g *GitHub) DispatchWorkflow(ctx context.Context, slug, workflowFile string, inputs map[string]any) error {
	owner, name, ok := splitSlug(slug)
	if !ok {
		return fmt.Errorf("invalid repository slug %q", slug)
	}
	if err := g.lim.Wait(ctx); err != nil {
		return err
	}

	_, err := g.api.Actions.CreateWorkflowDispatchEventByFileName(ctx, owner, name, workflowFile, github.CreateWorkflowDispatchEventRequest{
		Ref:    "main",
		Inputs: inputs,
	})
	if err != nil {
		return fmt.Errorf("dispatch %s on %s: %w", workflowFile, slug, err)
	}
	return nil
}

func splitSlug(slug string) (owner, name string, ok bool) {
	for i := 0; i < len(slug); i++ {
		if slug[i] == '/' {
			return slug[:i], slug[i+1:], i > 0 && i < len(slug)-1
		}
	}
	return "", "", false
}

func fromAPI(r *github.Repository) Repo {
	repo := Repo{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		Watchers:      r.GetWatchersCount(),
		Fork:          r.GetFork(),
		Archived:      r.GetArchived(),
		Language:      r.GetLanguage(),
		Topics:        r.Topics,
		HTMLURL:       r.GetHTMLURL(),
		OwnerType:     r.GetOwner().GetType(),
		DefaultBranch: r.GetDefaultBranch(),
	}
	if lic := r.GetLicense(); lic != nil {
		repo.License = lic.GetSPDXID()
	}
	if ts := r.PushedAt; ts != nil {
		repo.PushedAt = ts.Time
	}
	if ts := r.CreatedAt; ts != nil {
		repo.CreatedAt = ts.Time
	}
	return repo
}
