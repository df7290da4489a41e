// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes clovern tracker tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/clovern/internal/models"
	"github.com/starford/clovern/internal/tracker"
	"github.com/starford/clovern/internal/view"
)

const formatURI = "clovern://document-format"

// Server wraps the MCP server with tracker tools.
type Server struct {
	mcp   *server.MCPServer
	store *tracker.Store
}

// New creates a new MCP server with all tracker tools registered.
func New(store *tracker.Store, version string) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"clovern",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	statuses := make([]string, len(models.Statuses))
	for i, st := range models.Statuses {
		statuses[i] = string(st)
	}

	s.mcp.AddTool(mcp.NewTool("list_applications",
		mcp.WithDescription("List tracked job applications, optionally scoped to a folder, filtered by a search "+
			"query over company, position, notes, and location, and sorted by any column."),
		mcp.WithString("folder_id", mcp.Description("Only applications filed in this folder (empty for all)")),
		mcp.WithString("search", mcp.Description("Case-insensitive substring to search for")),
		mcp.WithString("sort", mcp.Description("Column id to sort by (default dateApplied)")),
		mcp.WithBoolean("desc", mcp.Description("Sort descending (default true when sort is empty)")),
	), s.listApplications)

	s.mcp.AddTool(mcp.NewTool("create_application",
		mcp.WithDescription("Record a new job application. Read the "+formatURI+" resource for field formats."),
		mcp.WithString("company", mcp.Required(), mcp.Description("Company name")),
		mcp.WithString("position", mcp.Description("Job title")),
		mcp.WithString("status", mcp.Description("Pipeline status"), mcp.Enum(statuses...)),
		mcp.WithString("date_applied", mcp.Description("Date applied, YYYY-MM-DD")),
		mcp.WithString("deadline", mcp.Description("Deadline, YYYY-MM-DD")),
		mcp.WithString("location", mcp.Description("Location")),
		mcp.WithString("salary", mcp.Description("Salary, free text")),
		mcp.WithString("link", mcp.Description("Posting URL")),
		mcp.WithString("notes", mcp.Description("Notes")),
		mcp.WithString("folder_id", mcp.Description("Folder to file the application in")),
	), s.createApplication)

	s.mcp.AddTool(mcp.NewTool("update_application_status",
		mcp.WithDescription("Move an application to another pipeline status."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Application id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status"), mcp.Enum(statuses...)),
	), s.updateApplicationStatus)

	s.mcp.AddTool(mcp.NewTool("delete_application",
		mcp.WithDescription("Delete an application permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Application id")),
	), s.deleteApplication)

	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List folders in sidebar order with the number of applications in each."),
	), s.listFolders)

	s.mcp.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a folder at the end of the sidebar."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
		mcp.WithString("color", mcp.Description("Folder color as #rrggbb")),
	), s.createFolder)

	s.mcp.AddTool(mcp.NewTool("move_application",
		mcp.WithDescription("File an application under a folder, or unfile it when folder_id is empty."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Application id")),
		mcp.WithString("folder_id", mcp.Description("Target folder id (empty to unfile)")),
	), s.moveApplication)

	s.mcp.AddTool(mcp.NewTool("set_folder_wallpaper",
		mcp.WithDescription("Set a folder wallpaper from an image URL (http/https or base64 data URI). "+
			"The image is embedded in the document."),
		mcp.WithString("folder_id", mcp.Required(), mcp.Description("Folder id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("PNG, JPEG, GIF, or WebP image URL")),
	), s.setFolderWallpaper)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Tracker Document Format",
			mcp.WithResourceDescription("Fields, statuses, and formats of the job tracker document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// parseStatus matches raw against the known statuses ignoring case. Unknown
// values pass through so the tracker can reject them.
func parseStatus(raw string) models.Status {
	for _, st := range models.Statuses {
		if strings.EqualFold(raw, string(st)) {
			return st
		}
	}
	return models.Status(raw)
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (s *Server) listApplications(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := view.Params{
		FolderID: optionalID(req.GetString("folder_id", "")),
		Query:    req.GetString("search", ""),
		Sort:     view.DefaultSort,
	}
	if key := req.GetString("sort", ""); key != "" {
		p.Sort = view.Sort{Key: key, Desc: req.GetBool("desc", false)}
	} else {
		p.Sort.Desc = req.GetBool("desc", true)
	}
	return jsonResult(s.store.Query(p)), nil
}

func (s *Server) createApplication(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	company, err := req.RequireString("company")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields := models.ApplicationFields{
		Company:     company,
		Position:    req.GetString("position", ""),
		Status:      parseStatus(req.GetString("status", "")),
		DateApplied: req.GetString("date_applied", ""),
		Deadline:    req.GetString("deadline", ""),
		Location:    req.GetString("location", ""),
		Salary:      req.GetString("salary", ""),
		Link:        req.GetString("link", ""),
		Notes:       req.GetString("notes", ""),
		FolderID:    optionalID(req.GetString("folder_id", "")),
	}
	app, err := s.store.CreateApplication(ctx, fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(app), nil
}

func (s *Server) updateApplicationStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := parseStatus(raw)
	app, err := s.store.UpdateApplication(ctx, id, models.ApplicationPatch{Status: &status})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update %s: %v", id, err)), nil
	}
	return jsonResult(app), nil
}

func (s *Server) deleteApplication(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.DeleteApplication(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete %s: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

type folderItem struct {
	models.Folder
	Count int `json:"count"`
}

func (s *Server) listFolders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts := s.store.FolderCounts()
	folders := s.store.Folders()
	out := make([]folderItem, len(folders))
	for i, f := range folders {
		// Wallpaper images can be megabytes of base64.
		if f.WallpaperIsImage() {
			f.Wallpaper = models.WallpaperImagePrefix
		}
		out[i] = folderItem{Folder: f, Count: counts[f.ID]}
	}
	return jsonResult(out), nil
}

func (s *Server) createFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	color := req.GetString("color", models.FolderColors[len(s.store.Folders())%len(models.FolderColors)])
	f, err := s.store.CreateFolder(ctx, name, color, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(f), nil
}

func (s *Server) moveApplication(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	app, err := s.store.MoveApplication(ctx, id, optionalID(req.GetString("folder_id", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("move %s: %v", id, err)), nil
	}
	return jsonResult(app), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
