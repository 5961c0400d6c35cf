// internal/gitcli/gitcli.go
//
// Thin adapter over the git binary. Every version-control primitive
// the release cycle needs (status, show, add, commit, tag, push) goes
// through here so the rest of the code can run against a fake.

package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/warehousekeeper/internal/ledger"
)

// Client runs git commands inside a repository directory.
type Client struct {
	dir string
}

// New creates a client rooted at the repository directory.
func New(dir string) *Client {
	return &Client{dir: dir}
}

// Status returns raw `git status --porcelain` output.
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return out, nil
}

// ShowHead returns the contents of a repository-relative path as of
// HEAD. When the path is absent from HEAD (or there is no commit
// yet), it reports ledger.ErrNotCommitted.
func (c *Client) ShowHead(ctx context.Context, path string) ([]byte, error) {
	out, err := c.output(ctx, "show", "HEAD:"+path)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", ledger.ErrNotCommitted, path)
		}
		return nil, err
	}
	return out, nil
}

// Stage adds the given repository-relative paths to the index.
// Deletions stage as removals, which is what the release needs.
func (c *Client) Stage(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := c.run(ctx, args...)
	return err
}

// Commit records the staged changes and returns the new commit hash.
func (c *Client) Commit(ctx context.Context, message string) (string, error) {
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	hash, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(hash), nil
}

// Tag creates an annotated tag on HEAD. git itself refuses to reuse
// an existing tag name, which backs the tag-uniqueness guarantee.
func (c *Client) Tag(ctx context.Context, name, message string) error {
	_, err := c.run(ctx, "tag", name, "-m", message)
	return err
}

// Push publishes the current branch, optionally with tags.
func (c *Client) Push(ctx context.Context, includeTags bool) error {
	args := []string{"push"}
	if includeTags {
		args = append(args, "--follow-tags")
	}
	_, err := c.run(ctx, args...)
	return err
}

// run executes git and returns stdout, folding stderr into the error.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	out, err := c.output(ctx, args...)
	return string(out), err
}

func (c *Client) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, fmt.Errorf("gitcli: git %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("gitcli: git %s: %w: %s", args[0], err, detail)
	}
	return out, nil
}
