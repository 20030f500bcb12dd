package collect

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/oncall-tools/rca-cli/pkg/jina"
	"github.com/oncall-tools/rca-cli/pkg/jira"
)

// jinaReader adapts the Jina Reader API as a URLReader.
type jinaReader struct {
	client jina.Client
}

// NewJinaReader wraps a Jina client for web source collection.
func NewJinaReader(client jina.Client) URLReader {
	return &jinaReader{client: client}
}

func (r *jinaReader) Fetch(ctx context.Context, u string) (string, error) {
	resp, err := r.client.Read(ctx, u)
	if err != nil {
		return "", err
	}
	if resp.Data.Content == "" {
		return "", eris.Errorf("collect: empty content for %s", u)
	}
	if resp.Data.Title != "" {
		return fmt.Sprintf("%s\n\n%s", resp.Data.Title, resp.Data.Content), nil
	}
	return resp.Data.Content, nil
}

// jiraReader adapts a Jira client as a TicketReader.
type jiraReader struct {
	client jira.Client
}

// NewJiraReader wraps a Jira client for ticket source collection.
func NewJiraReader(client jira.Client) TicketReader {
	return &jiraReader{client: client}
}

func (r *jiraReader) Fetch(ctx context.Context, id string) (string, error) {
	issue, err := r.client.GetIssue(ctx, id)
	if err != nil {
		return "", err
	}
	return issue.Render(), nil
}
