// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// view engine.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/krets/internal/adapters/server/common"
	"github.com/hylla/krets/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the list and resolve
// tools.
func NewHandler(cfg Config, source common.CollectionSource, resolver common.Resolver) (*Handler, error) {
	if source == nil {
		return nil, fmt.Errorf("collection source is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListTool(mcpSrv, source)
	if resolver != nil {
		registerResolveTool(mcpSrv, resolver)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "krets"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerListTool registers the `krets.list_circuits` tool.
func registerListTool(srv *mcpserver.MCPServer, source common.CollectionSource) {
	srv.AddTool(
		mcp.NewTool(
			"krets.list_circuits",
			mcp.WithDescription("List synchronized circuits and proposals, optionally filtered and sorted."),
			mcp.WithString("filter", mcp.Description("Case-insensitive term matched against id, management type, comments, members, and service types")),
			mcp.WithBoolean("awaiting_approval", mcp.Description("Only proposals with no recorded vote")),
			mcp.WithBoolean("action_required", mcp.Description("Only proposals still owing a vote from actor")),
			mcp.WithString("actor", mcp.Description("Actor identifier for action_required")),
			mcp.WithString("sort", mcp.Description("Sort key"), mcp.Enum("id", "managementType", "serviceCount", "comments")),
			mcp.WithString("order", mcp.Description("Sort direction"), mcp.Enum("asc", "desc")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			records, err := common.ListRecords(source, common.ListRequest{
				Term:             req.GetString("filter", ""),
				AwaitingApproval: req.GetBool("awaiting_approval", false),
				ActionRequired:   req.GetBool("action_required", false),
				ActorID:          req.GetString("actor", ""),
				SortKey:          req.GetString("sort", ""),
				Order:            req.GetString("order", ""),
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := mcp.NewToolResultJSON(records)
			if err != nil {
				return nil, fmt.Errorf("encode list_circuits result: %w", err)
			}
			return result, nil
		},
	)
}

// registerResolveTool registers the `krets.get_circuit` tool.
func registerResolveTool(srv *mcpserver.MCPServer, resolver common.Resolver) {
	srv.AddTool(
		mcp.NewTool(
			"krets.get_circuit",
			mcp.WithDescription("Resolve one record by id, trying the circuit namespace before falling back to proposals."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Circuit or proposal identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			record, err := resolver.ResolveOne(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return mcp.NewToolResultError("no circuit or proposal with id " + id), nil
				}
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := mcp.NewToolResultJSON(record)
			if err != nil {
				return nil, fmt.Errorf("encode get_circuit result: %w", err)
			}
			return result, nil
		},
	)
}
