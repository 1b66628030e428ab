// Package gitops versions generated artifacts in a git repository and can
// push them to a GitHub remote. Local operations go through the git binary;
// remote verification uses the GitHub API.
package gitops

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"
)

// Committer identity used when the repository has no user configured.
const (
	defaultUserName  = "maestro"
	defaultUserEmail = "maestro@localhost"
)

// Repo manages the artifact repository.
type Repo struct {
	dir       string
	remoteURL string
	branch    string
	token     string
}

// RemoteInfo describes the configured GitHub remote.
type RemoteInfo struct {
	Owner         string
	Name          string
	DefaultBranch string
	Private       bool
	HTMLURL       string
}

// NewRepo builds a repo handle rooted at dir. remoteURL and token are
// optional; without them commits stay local.
func NewRepo(dir, remoteURL, branch, token string) *Repo {
	if branch == "" {
		branch = "main"
	}
	return &Repo{dir: dir, remoteURL: remoteURL, branch: branch, token: token}
}

// Dir returns the repository root.
func (r *Repo) Dir() string {
	return r.dir
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// EnsureInit initializes the repository if needed and makes sure a committer
// identity exists, falling back to a local maestro identity when the host
// has no git user configured.
func (r *Repo) EnsureInit(ctx context.Context) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create repo dir: %w", err)
	}

	if _, err := os.Stat(filepath.Join(r.dir, ".git")); os.IsNotExist(err) {
		if _, err := r.git(ctx, "init", "--initial-branch", r.branch); err != nil {
			// Older git has no --initial-branch.
			if _, err := r.git(ctx, "init"); err != nil {
				return err
			}
		}
	}

	if _, err := r.git(ctx, "config", "user.name"); err != nil {
		if _, err := r.git(ctx, "config", "user.name", defaultUserName); err != nil {
			return err
		}
	}
	if _, err := r.git(ctx, "config", "user.email"); err != nil {
		if _, err := r.git(ctx, "config", "user.email", defaultUserEmail); err != nil {
			return err
		}
	}
	return nil
}

// CommitArtifact stages path (relative to the repo root) and commits it.
// An unchanged tree is not an error; the commit is simply skipped.
func (r *Repo) CommitArtifact(ctx context.Context, relPath, message string) error {
	if err := r.EnsureInit(ctx); err != nil {
		return err
	}
	if _, err := r.git(ctx, "add", relPath); err != nil {
		return err
	}

	status, err := r.git(ctx, "status", "--porcelain", relPath)
	if err != nil {
		return err
	}
	if status == "" {
		return nil
	}

	_, err = r.git(ctx, "commit", "-m", message)
	return err
}

// Log returns the most recent commit subjects, newest first.
func (r *Repo) Log(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		n = 10
	}
	out, err := r.git(ctx, "log", fmt.Sprintf("-%d", n), "--pretty=format:%h %s")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Push sends the branch to the configured remote, injecting the token into
// the push URL so no credential helper is needed.
func (r *Repo) Push(ctx context.Context) error {
	if r.remoteURL == "" {
		return fmt.Errorf("no remote configured")
	}

	pushURL, err := r.authenticatedURL()
	if err != nil {
		return err
	}

	if _, err := r.git(ctx, "remote", "get-url", "origin"); err != nil {
		if _, err := r.git(ctx, "remote", "add", "origin", r.remoteURL); err != nil {
			return err
		}
	}

	// The token goes on the command line URL, never into git config, so it
	// is not persisted in .git/config.
	_, err = r.git(ctx, "push", pushURL, "HEAD:"+r.branch)
	return err
}

func (r *Repo) authenticatedURL() (string, error) {
	if r.token == "" {
		return r.remoteURL, nil
	}
	u, err := url.Parse(r.remoteURL)
	if err != nil {
		return "", fmt.Errorf("invalid remote URL: %w", err)
	}
	if u.Scheme != "https" {
		return r.remoteURL, nil
	}
	u.User = url.UserPassword("x-access-token", r.token)
	return u.String(), nil
}

// RemoteStatus verifies the GitHub remote exists and is reachable with the
// configured token.
func (r *Repo) RemoteStatus(ctx context.Context) (*RemoteInfo, error) {
	owner, name, err := parseGitHubRemote(r.remoteURL)
	if err != nil {
		return nil, err
	}

	var client *github.Client
	if r.token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: r.token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	} else {
		client = github.NewClient(nil)
	}

	repo, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to reach remote %s/%s: %w", owner, name, err)
	}

	return &RemoteInfo{
		Owner:         owner,
		Name:          name,
		DefaultBranch: repo.GetDefaultBranch(),
		Private:       repo.GetPrivate(),
		HTMLURL:       repo.GetHTMLURL(),
	}, nil
}

// parseGitHubRemote extracts owner and repo from https or ssh GitHub URLs.
func parseGitHubRemote(remote string) (owner, name string, err error) {
	if remote == "" {
		return "", "", fmt.Errorf("no remote configured")
	}

	s := remote
	if strings.HasPrefix(s, "git@github.com:") {
		s = strings.TrimPrefix(s, "git@github.com:")
	} else if u, perr := url.Parse(s); perr == nil && u.Host == "github.com" {
		s = strings.TrimPrefix(u.Path, "/")
	} else {
		return "", "", fmt.Errorf("not a GitHub remote: %s", remote)
	}

	s = strings.TrimSuffix(s, ".git")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from remote: %s", remote)
	}
	return parts[0], parts[1], nil
}
