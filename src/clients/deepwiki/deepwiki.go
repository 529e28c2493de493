// Package deepwiki is the client for the DeepWiki MCP server, which answers
// questions about a public repository's generated documentation.
package deepwiki

import (
	"context"
	"errors"

	"github.com/spf13/viper"

	toolclient "github.com/deep-sre-agent/go-toolclient"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

const (
	Service       = "deepwiki_mcp"
	EnvPrefix     = "DEEPWIKI_MCP"
	DefaultURL    = "https://mcp.deepwiki.com/mcp"
	DefaultSSEURL = "https://mcp.deepwiki.com/sse"

	// RepoEnv names the variable holding the default repository.
	RepoEnv = "DEEPWIKI_REPO_URL"
)

// ErrRepoNotConfigured is returned when neither the call nor the client
// names a repository.
var ErrRepoNotConfigured = errors.New(RepoEnv + " is not set and no repository was given")

func DefaultConfig() toolclient.ClientConfig {
	return toolclient.ClientConfig{
		Service:   Service,
		EnvPrefix: EnvPrefix,
		Mode:      transports.ModeEventStream,
		Endpoints: toolclient.Endpoints{EventStream: DefaultSSEURL, PlainHTTP: DefaultURL},
		Timeout:   toolclient.DefaultTimeout,
	}
}

func ConfigFromEnv() toolclient.ClientConfig {
	return toolclient.ConfigFromEnv(EnvPrefix, DefaultConfig())
}

type Client struct {
	mcp  *toolclient.Client
	repo string
}

// New builds a client. repo is the default repository, such as
// "owner/name" or a GitHub URL; it may be empty.
func New(cfg toolclient.ClientConfig, repo string, opts ...toolclient.Option) *Client {
	return &Client{mcp: toolclient.New(cfg, opts...), repo: repo}
}

// NewFromEnv builds a client from DEEPWIKI_MCP_* and DEEPWIKI_REPO_URL.
func NewFromEnv(opts ...toolclient.Option) *Client {
	v := viper.New()
	v.AutomaticEnv()
	return New(ConfigFromEnv(), v.GetString(RepoEnv), opts...)
}

func (c *Client) MCP() *toolclient.Client {
	return c.mcp
}

// Repo returns the default repository.
func (c *Client) Repo() string {
	return c.repo
}

func (c *Client) resolveRepo(repoURL string) (string, error) {
	if repoURL != "" {
		return repoURL, nil
	}
	if c.repo != "" {
		return c.repo, nil
	}
	return "", ErrRepoNotConfigured
}

// call sends the repository as repo_url. Servers whose discovered schema
// names it repoName get that key as well.
func (c *Client) call(ctx context.Context, tool, repoURL string, args map[string]any) (string, error) {
	repo, err := c.resolveRepo(repoURL)
	if err != nil {
		return "", err
	}
	args["repo_url"] = repo
	c.mcp.EnsureDiscovered(ctx)
	if t, ok := c.mcp.Tool(tool); ok && t.Declares("repoName") {
		args["repoName"] = repo
	}
	return c.mcp.Invoke(ctx, tool, []string{tool}, args), nil
}

// ReadWikiStructure lists the documentation topics of a repository.
func (c *Client) ReadWikiStructure(ctx context.Context, repoURL string) (string, error) {
	return c.call(ctx, "read_wiki_structure", repoURL, map[string]any{})
}

// ReadWikiContents reads documentation pages. Nil paths mean all pages.
func (c *Client) ReadWikiContents(ctx context.Context, repoURL string, paths []string) (string, error) {
	if paths == nil {
		paths = []string{}
	}
	return c.call(ctx, "read_wiki_contents", repoURL, map[string]any{"paths": paths})
}

// AskQuestion asks a free-form question about a repository.
func (c *Client) AskQuestion(ctx context.Context, question, repoURL string) (string, error) {
	return c.call(ctx, "ask_question", repoURL, map[string]any{"question": question})
}
