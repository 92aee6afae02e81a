package issues

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	gql "github.com/graphql-go/graphql"
)

// fakeBackend is an in-process issue tracker that speaks the same schema as
// the real server: issueList, issueAdd(issue: IssueInputs!), and
// addToBlacklist(nameInput: String!). Validation failures are reported with
// the BAD_USER_INPUT extension block.
type fakeBackend struct {
	mu        sync.Mutex
	issues    []map[string]any
	blacklist []string
	nextID    int

	schema gql.Schema
	srv    *httptest.Server
}

// validationKey carries the per-request list of validation failures.
type validationKey struct{}

type validation struct {
	errors []string
}

var errInvalidInput = errors.New("Invalid input(s) in issue")

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{nextID: 1}

	issueType := gql.NewObject(gql.ObjectConfig{
		Name: "Issue",
		Fields: gql.Fields{
			"id":      &gql.Field{Type: gql.Int},
			"title":   &gql.Field{Type: gql.String},
			"status":  &gql.Field{Type: gql.String},
			"owner":   &gql.Field{Type: gql.String},
			"created": &gql.Field{Type: gql.String},
			"effort":  &gql.Field{Type: gql.Int},
			"due":     &gql.Field{Type: gql.String},
		},
	})

	issueInputs := gql.NewInputObject(gql.InputObjectConfig{
		Name: "IssueInputs",
		Fields: gql.InputObjectConfigFieldMap{
			"title":  &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
			"status": &gql.InputObjectFieldConfig{Type: gql.String},
			"owner":  &gql.InputObjectFieldConfig{Type: gql.String},
			"effort": &gql.InputObjectFieldConfig{Type: gql.Int},
			"due":    &gql.InputObjectFieldConfig{Type: gql.String},
		},
	})

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"issueList": &gql.Field{
				Type: gql.NewList(issueType),
				Resolve: func(p gql.ResolveParams) (any, error) {
					fb.mu.Lock()
					defer fb.mu.Unlock()
					out := make([]any, len(fb.issues))
					for i, is := range fb.issues {
						out[i] = is
					}
					return out, nil
				},
			},
		},
	})

	mutation := gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"issueAdd": &gql.Field{
				Type: issueType,
				Args: gql.FieldConfigArgument{
					"issue": &gql.ArgumentConfig{Type: gql.NewNonNull(issueInputs)},
				},
				Resolve: fb.resolveIssueAdd,
			},
			"addToBlacklist": &gql.Field{
				Type: gql.String,
				Args: gql.FieldConfigArgument{
					"nameInput": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					name, _ := p.Args["nameInput"].(string)
					fb.mu.Lock()
					fb.blacklist = append(fb.blacklist, name)
					fb.mu.Unlock()
					return nil, nil
				},
			},
		},
	})

	schema, err := gql.NewSchema(gql.SchemaConfig{Query: query, Mutation: mutation})
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	fb.schema = schema
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serveHTTP))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) resolveIssueAdd(p gql.ResolveParams) (any, error) {
	in, _ := p.Args["issue"].(map[string]any)
	title, _ := in["title"].(string)
	status, _ := in["status"].(string)
	owner, _ := in["owner"].(string)
	due, _ := in["due"].(string)
	effort, _ := in["effort"].(int)

	var problems []string
	if len(title) < 3 {
		problems = append(problems, "Field \"title\" must be at least 3 characters long.")
	}
	if status == "Assigned" && owner == "" {
		problems = append(problems, "Field \"owner\" is required when status is \"Assigned\"")
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, b := range fb.blacklist {
		if b == owner {
			problems = append(problems, fmt.Sprintf("Owner %q is blacklisted", owner))
		}
	}
	if len(problems) > 0 {
		if v, ok := p.Context.Value(validationKey{}).(*validation); ok {
			v.errors = problems
		}
		return nil, errInvalidInput
	}

	issue := map[string]any{
		"id":      fb.nextID,
		"title":   title,
		"status":  status,
		"owner":   owner,
		"created": "2026-10-16T09:00:00.000Z",
		"effort":  effort,
		"due":     due,
	}
	fb.nextID++
	fb.issues = append(fb.issues, issue)
	return issue, nil
}

// serveHTTP executes a GraphQL request and writes an Apollo-style envelope.
func (fb *fakeBackend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	v := &validation{}
	ctx := context.WithValue(r.Context(), validationKey{}, v)
	res := gql.Do(gql.Params{
		Schema:         fb.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		Context:        ctx,
	})

	env := map[string]any{"data": res.Data}
	status := http.StatusOK
	if len(res.Errors) > 0 {
		errs := make([]any, 0, len(res.Errors))
		for _, e := range res.Errors {
			ext := map[string]any{"code": "INTERNAL_SERVER_ERROR"}
			if e.Message == errInvalidInput.Error() {
				ext = map[string]any{
					"code":      "BAD_USER_INPUT",
					"exception": map[string]any{"errors": v.errors},
				}
				status = http.StatusBadRequest
			}
			errs = append(errs, map[string]any{"message": e.Message, "extensions": ext})
		}
		env["errors"] = errs
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// blacklisted returns a copy of the blacklisted owners.
func (fb *fakeBackend) blacklisted() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.blacklist...)
}
