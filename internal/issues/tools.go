package issues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jamesprial/issue-mcp/internal/safety"
	"github.com/jamesprial/issue-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolNameList      = "issues_list"
	toolNameAdd       = "issue_add"
	toolNameBlacklist = "blacklist_add"
)

// DestructiveTools lists issue tool names that require confirmation before
// execution.
var DestructiveTools = []string{toolNameBlacklist}

// Filters restricts which issues issues_list may show. Nil filters allow
// everything.
type Filters struct {
	Owners   *safety.Filter
	Statuses *safety.Filter
}

// IssueTools returns the tool registrations for issue management:
// issues_list, issue_add, and blacklist_add (with confirmation).
func IssueTools(mgr IssueManager, filters Filters, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolIssuesList(mgr, filters, audit),
		toolIssueAdd(mgr, audit),
		toolBlacklistAdd(mgr, confirm, audit),
	}
}

// toolIssuesList constructs the issues_list Registration.
func toolIssuesList(mgr IssueManager, filters Filters, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameList,
		mcp.WithDescription("List issues with id, title, status, owner, created date, effort, and due date. Supports optional glob filters on owner and status."),
		mcp.WithString("owner",
			mcp.Description("Glob pattern an issue's owner must match, e.g. \"ali*\""),
		),
		mcp.WithString("status",
			mcp.Description("Glob pattern an issue's status must match: New, Assigned, Fixed, Closed"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		owner := req.GetString("owner", "")
		status := req.GetString("status", "")
		params := map[string]any{
			"owner":  owner,
			"status": status,
		}

		list, err := mgr.List(ctx)
		if list == nil && err != nil {
			tools.LogAudit(audit, toolNameList, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		var request Filters
		if owner != "" {
			request.Owners = safety.NewFilter([]string{owner}, nil)
		}
		if status != "" {
			request.Statuses = safety.NewFilter([]string{status}, nil)
		}

		visible := make([]Issue, 0, len(list))
		for _, is := range list {
			if filters.allows(is) && request.allows(is) {
				visible = append(visible, is)
			}
		}

		result := "ok"
		if err != nil {
			result = "partial: " + err.Error()
		}
		tools.LogAudit(audit, toolNameList, params, fmt.Sprintf("%s (%d issues)", result, len(visible)), start)
		return tools.WithAlert(mcp.NewToolResultText(FormatTable(visible)), err), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func (f Filters) allows(is Issue) bool {
	return f.Owners.IsAllowed(is.Owner) && f.Statuses.IsAllowed(string(is.Status))
}

// toolIssueAdd constructs the issue_add Registration.
func toolIssueAdd(mgr IssueManager, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameAdd,
		mcp.WithDescription("Add a new issue. Status defaults to New and the due date to today."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Issue title"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status: New (default), Assigned, Fixed, or Closed"),
		),
		mcp.WithString("owner",
			mcp.Description("Owner of the issue"),
		),
		mcp.WithString("effort",
			mcp.Description("Estimated effort in days; non-numeric input counts as 0"),
		),
		mcp.WithString("due",
			mcp.Description("Due date as YYYY-MM-DD"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		title := req.GetString("title", "")
		statusStr := req.GetString("status", "")
		owner := req.GetString("owner", "")
		effortStr := req.GetString("effort", "")
		dueStr := req.GetString("due", "")

		params := map[string]any{
			"title":  title,
			"status": statusStr,
			"owner":  owner,
			"effort": effortStr,
			"due":    dueStr,
		}

		status, err := ParseStatus(statusStr)
		if err != nil {
			tools.LogAudit(audit, toolNameAdd, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		in := IssueInputs{
			Title:  title,
			Status: status,
			Owner:  owner,
			Effort: ParseEffort(effortStr),
		}
		if dueStr != "" {
			due, err := time.Parse(time.DateOnly, strings.TrimSpace(dueStr))
			if err != nil {
				msg := fmt.Sprintf("invalid due date %q: want YYYY-MM-DD", dueStr)
				tools.LogAudit(audit, toolNameAdd, params, "error: "+msg, start)
				return tools.ErrorResult(msg), nil
			}
			in.Due = due
		}

		id, err := mgr.Add(ctx, in)
		if id == 0 && err != nil {
			tools.LogAudit(audit, toolNameAdd, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameAdd, params, fmt.Sprintf("ok: id=%d", id), start)
		return tools.WithAlert(mcp.NewToolResultText(fmt.Sprintf("Issue id: %d added.", id)), err), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// toolBlacklistAdd constructs the blacklist_add Registration.
func toolBlacklistAdd(mgr IssueManager, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolNameBlacklist,
		mcp.WithDescription("Add an owner to the server's blacklist. Requires a confirmation token from a prior call."),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Owner name to blacklist"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		owner := strings.TrimSpace(req.GetString("owner", ""))
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"owner": owner}

		if owner == "" {
			msg := "owner is required"
			tools.LogAudit(audit, toolNameBlacklist, params, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		if confirm != nil && confirm.NeedsConfirmation(toolNameBlacklist) && !confirm.Confirm(token, toolNameBlacklist, owner) {
			tools.LogAudit(audit, toolNameBlacklist, params, "confirmation requested", start)
			desc := fmt.Sprintf("This will add %q to the blacklist. Issues can no longer be assigned to this owner.", owner)
			return tools.ConfirmPrompt(confirm, toolNameBlacklist, owner, desc), nil
		}

		if err := mgr.Blacklist(ctx, owner); err != nil {
			tools.LogAudit(audit, toolNameBlacklist, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolNameBlacklist, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("%s added to blacklist", owner)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
