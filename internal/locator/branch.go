package locator

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// BranchResolver discovers the default branch of a repository
type BranchResolver interface {
	DefaultBranch(ctx context.Context, repo Repository) (string, error)
}

// StaticBranchResolver always answers with the same branch
type StaticBranchResolver string

// DefaultBranch implements BranchResolver
func (s StaticBranchResolver) DefaultBranch(_ context.Context, _ Repository) (string, error) {
	if s == "" {
		return DefaultBranch, nil
	}
	return string(s), nil
}

// GitBranchResolver resolves the default branch by listing the remote's references
// and following the symbolic HEAD, like `git ls-remote --symref <url> HEAD`.
type GitBranchResolver struct {
	// remoteURL maps a repository to the URL that is listed
	remoteURL func(Repository) string
}

// NewGitBranchResolver returns a resolver that talks to the hosting provider over HTTPS
func NewGitBranchResolver() *GitBranchResolver {
	return &GitBranchResolver{remoteURL: Repository.CloneURL}
}

// DefaultBranch implements BranchResolver
func (g *GitBranchResolver) DefaultBranch(ctx context.Context, repo Repository) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{g.remoteURL(repo)},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list remote references for %s: %w", repo.Slug(), err)
	}

	return headTarget(refs)
}

// headTarget returns the short branch name HEAD points at
func headTarget(refs []*plumbing.Reference) (string, error) {
	for _, ref := range refs {
		if ref.Name() != plumbing.HEAD {
			continue
		}
		if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
			return ref.Target().Short(), nil
		}
		// Without the symref capability HEAD is a hash, match it against branches.
		for _, candidate := range refs {
			if candidate.Name().IsBranch() && candidate.Hash() == ref.Hash() {
				return candidate.Name().Short(), nil
			}
		}
	}
	return "", fmt.Errorf("remote does not advertise HEAD")
}
