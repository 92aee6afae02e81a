package issues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/issue-mcp/internal/graphql"
)

// ErrNoData is returned when the server answered without a usable data
// payload and without saying why.
var ErrNoData = errors.New("no usable data in response")

const (
	queryIssueList = `query {
  issueList {
    id title status owner
    created effort due
  }
}`

	mutationIssueAdd = `mutation issueAdd($issue: IssueInputs!) {
  issueAdd(issue: $issue) {
    id
  }
}`

	mutationAddToBlacklist = `mutation addToBlacklist($nameInput: String!) {
  addToBlacklist(nameInput: $nameInput)
}`
)

// Compile-time interface check.
var _ IssueManager = (*GraphQLIssueManager)(nil)

// GraphQLIssueManager implements IssueManager using a GraphQL client.
//
// Errors from the client (*graphql.ResponseError, *graphql.TransportError)
// are returned unwrapped so that their text remains the user-facing alert.
type GraphQLIssueManager struct {
	client graphql.Client
	now    func() time.Time
}

// NewGraphQLIssueManager returns a GraphQLIssueManager backed by client.
func NewGraphQLIssueManager(client graphql.Client) *GraphQLIssueManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLIssueManager{client: client, now: time.Now}
}

// listResponse is the data shape of the issueList query.
type listResponse struct {
	IssueList []Issue `json:"issueList"`
}

// addResponse is the data shape of the issueAdd mutation.
type addResponse struct {
	IssueAdd *struct {
		ID int `json:"id"`
	} `json:"issueAdd"`
}

// List runs the issueList query.
func (m *GraphQLIssueManager) List(ctx context.Context) ([]Issue, error) {
	data, err := m.client.Do(ctx, queryIssueList, nil)
	if data == nil {
		return nil, orNoData(err)
	}

	var resp listResponse
	if decErr := graphql.Decode(data, &resp); decErr != nil {
		return nil, fmt.Errorf("issues list: parse response: %w", decErr)
	}
	return resp.IssueList, err
}

// Add runs the issueAdd mutation and returns the new issue's id. An empty
// status becomes New and a zero due date becomes the current time; no other
// validation is done client-side.
func (m *GraphQLIssueManager) Add(ctx context.Context, in IssueInputs) (int, error) {
	if in.Status == "" {
		in.Status = StatusNew
	}
	if in.Due.IsZero() {
		in.Due = m.now()
	}

	data, err := m.client.Do(ctx, mutationIssueAdd, map[string]any{"issue": in.variables()})
	if data == nil {
		return 0, orNoData(err)
	}

	var resp addResponse
	if decErr := graphql.Decode(data, &resp); decErr != nil {
		return 0, fmt.Errorf("issues add: parse response: %w", decErr)
	}
	if resp.IssueAdd == nil {
		return 0, orNoData(err)
	}
	return resp.IssueAdd.ID, err
}

// Blacklist runs the addToBlacklist mutation for owner. The server answers
// this mutation with null, so success means a data payload was returned
// without an error.
func (m *GraphQLIssueManager) Blacklist(ctx context.Context, owner string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return fmt.Errorf("issues blacklist: owner must not be empty")
	}

	data, err := m.client.Do(ctx, mutationAddToBlacklist, map[string]any{"nameInput": owner})
	if err != nil {
		return err
	}
	if data == nil {
		return ErrNoData
	}
	return nil
}

func orNoData(err error) error {
	if err != nil {
		return err
	}
	return ErrNoData
}
