package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jamesprial/issue-mcp/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// ---------------------------------------------------------------------------
// Mock Client
// ---------------------------------------------------------------------------

// mockClient implements the Client interface for testing tool handlers.
type mockClient struct {
	doFunc func(ctx context.Context, query string, variables map[string]any) (any, error)
}

func (m *mockClient) Do(ctx context.Context, query string, variables map[string]any) (any, error) {
	return m.doFunc(ctx, query, variables)
}

var _ Client = (*mockClient)(nil)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newCallToolRequest builds an mcp.CallToolRequest with the given arguments map.
func newCallToolRequest(t *testing.T, args map[string]any) mcp.CallToolRequest {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// extractResultText extracts the text string from a CallToolResult, assuming
// the first content entry is TextContent.
func extractResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content entries")
	}
	tc, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("first content entry is not TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

// newTestAuditLogger returns an AuditLogger backed by an in-memory buffer.
func newTestAuditLogger(t *testing.T) (*safety.AuditLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return safety.NewAuditLogger(&buf), &buf
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func Test_GraphQLTools_Registration(t *testing.T) {
	client := &mockClient{doFunc: func(context.Context, string, map[string]any) (any, error) {
		return map[string]any{}, nil
	}}

	regs := GraphQLTools(client, nil)
	if len(regs) != 1 {
		t.Fatalf("GraphQLTools() returned %d registrations, want 1", len(regs))
	}
	if regs[0].Tool.Name != "graphql_query" {
		t.Errorf("tool name = %q, want %q", regs[0].Tool.Name, "graphql_query")
	}
	if regs[0].Handler == nil {
		t.Error("tool handler is nil")
	}

	required := regs[0].Tool.InputSchema.Required
	if len(required) != 1 || required[0] != "query" {
		t.Errorf("required = %v, want [query]", required)
	}
	if _, ok := regs[0].Tool.InputSchema.Properties["variables"]; !ok {
		t.Error("tool input schema is missing 'variables' property")
	}
}

// ---------------------------------------------------------------------------
// graphql_query handler
// ---------------------------------------------------------------------------

func Test_GraphQLQueryHandler_Cases(t *testing.T) {
	tests := []struct {
		name            string
		args            map[string]any
		doFunc          func(ctx context.Context, query string, variables map[string]any) (any, error)
		wantContains    []string
		wantNotContains string
	}{
		{
			name: "data is rendered as JSON",
			args: map[string]any{"query": "{ issueList { id } }"},
			doFunc: func(context.Context, string, map[string]any) (any, error) {
				return map[string]any{"issueList": []any{map[string]any{"id": 1.0}}}, nil
			},
			wantContains:    []string{`"issueList"`, `"id": 1`},
			wantNotContains: "error",
		},
		{
			name: "revived dates render as RFC 3339",
			args: map[string]any{"query": "{ issueList { due } }"},
			doFunc: func(context.Context, string, map[string]any) (any, error) {
				return map[string]any{"due": time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}, nil
			},
			wantContains: []string{"2024-01-15T00:00:00Z"},
		},
		{
			name: "variables JSON is forwarded",
			args: map[string]any{"query": "mutation", "variables": `{"nameInput":"eve"}`},
			doFunc: func(_ context.Context, _ string, variables map[string]any) (any, error) {
				if variables["nameInput"] != "eve" {
					return nil, errors.New("expected nameInput=eve in variables")
				}
				return map[string]any{"addToBlacklist": nil}, nil
			},
			wantContains: []string{"addToBlacklist"},
		},
		{
			name: "invalid variables JSON returns error result",
			args: map[string]any{"query": "q", "variables": "not json"},
			doFunc: func(context.Context, string, map[string]any) (any, error) {
				t.Error("Do should not be called when variables JSON is invalid")
				return nil, nil
			},
			wantContains: []string{"error:", "parse variables JSON"},
		},
		{
			name: "transport error with no data",
			args: map[string]any{"query": "q"},
			doFunc: func(context.Context, string, map[string]any) (any, error) {
				return nil, &TransportError{Err: errors.New("connection refused")}
			},
			wantContains: []string{"error: Error in sending data to server: connection refused"},
		},
		{
			name: "response error with partial data reports both",
			args: map[string]any{"query": "q"},
			doFunc: func(context.Context, string, map[string]any) (any, error) {
				return map[string]any{"issueList": []any{}}, &ResponseError{Code: "FORBIDDEN", Message: "nope"}
			},
			wantContains: []string{`"alert": "FORBIDDEN: nope"`, `"issueList"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit, buf := newTestAuditLogger(t)
			regs := GraphQLTools(&mockClient{doFunc: tt.doFunc}, audit)

			result, err := regs[0].Handler(context.Background(), newCallToolRequest(t, tt.args))
			if err != nil {
				t.Fatalf("handler returned non-nil error: %v", err)
			}
			text := extractResultText(t, result)
			for _, want := range tt.wantContains {
				if !strings.Contains(text, want) {
					t.Errorf("result text = %q, want it to contain %q", text, want)
				}
			}
			if tt.wantNotContains != "" && strings.Contains(text, tt.wantNotContains) {
				t.Errorf("result text = %q, want it NOT to contain %q", text, tt.wantNotContains)
			}

			var entry safety.AuditEntry
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				t.Fatalf("audit log is not one JSON line: %v (%q)", err, buf.String())
			}
			if entry.Tool != "graphql_query" {
				t.Errorf("audit tool = %q, want graphql_query", entry.Tool)
			}
		})
	}
}

func Test_GraphQLQueryHandler_NilAuditLogger_NoPanic(t *testing.T) {
	client := &mockClient{doFunc: func(context.Context, string, map[string]any) (any, error) {
		return map[string]any{"ok": true}, nil
	}}

	regs := GraphQLTools(client, nil)
	result, err := regs[0].Handler(context.Background(), newCallToolRequest(t, map[string]any{"query": "q"}))
	if err != nil {
		t.Fatalf("handler returned non-nil error: %v", err)
	}
	if result == nil {
		t.Fatal("handler returned nil result")
	}
}
