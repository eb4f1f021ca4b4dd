package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openkraft/licensekraft/internal/adapters/outbound/config"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/gitinfo"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/licensee"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/manifest"
	"github.com/openkraft/licensekraft/internal/adapters/outbound/ripgrep"
	"github.com/openkraft/licensekraft/internal/application"
	"github.com/openkraft/licensekraft/internal/domain"
	"github.com/openkraft/licensekraft/internal/domain/verify"
)

// registerTools registers all licensekraft MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	// 1. licensekraft_verify
	s.AddTool(
		mcplib.NewTool("licensekraft_verify",
			mcplib.WithDescription("Runs the full license verification for the project and returns the report as JSON"),
			mcplib.WithString("organization", mcplib.Description("Organization named in the copyright notice (overrides configuration)")),
			mcplib.WithBoolean("workspace", mcplib.Description("Treat the repository as a multi-package workspace")),
			mcplib.WithString("members", mcplib.Description("Space-delimited workspace member directories")),
		),
		handleVerify(projectPath),
	)

	// 2. licensekraft_resolve_attribution
	s.AddTool(
		mcplib.NewTool("licensekraft_resolve_attribution",
			mcplib.WithDescription("Resolves the copyright notice that every source file must contain"),
			mcplib.WithString("organization",
				mcplib.Required(),
				mcplib.Description("Organization that holds the copyright"),
			),
			mcplib.WithString("attribution", mcplib.Description("Raw attribution text detected in the LICENSE file; may span several lines")),
		),
		handleResolveAttribution(),
	)

	// 3. licensekraft_check_consistency
	s.AddTool(
		mcplib.NewTool("licensekraft_check_consistency",
			mcplib.WithDescription("Checks a list of license-bearing files against the root or member policy"),
			mcplib.WithString("files",
				mcplib.Required(),
				mcplib.Description("Comma-separated file names in which a license was detected"),
			),
			mcplib.WithString("scope", mcplib.Description("Scope name: \"root\" (default) or a workspace member directory")),
			mcplib.WithBoolean("workspace", mcplib.Description("Whether the repository is a workspace")),
		),
		handleCheckConsistency(projectPath),
	)

	// 4. licensekraft_check_manifest
	s.AddTool(
		mcplib.NewTool("licensekraft_check_manifest",
			mcplib.WithDescription("Checks that a Cargo manifest declares the expected license"),
			mcplib.WithString("license",
				mcplib.Required(),
				mcplib.Description("Expected license identifier, e.g. MIT"),
			),
			mcplib.WithString("manifest", mcplib.Description("Manifest path relative to the project root (default Cargo.toml)")),
		),
		handleCheckManifest(projectPath),
	)
}

// loadConfig reads the project configuration and applies tool arguments.
func loadConfig(projectPath string, args map[string]any) (domain.Config, error) {
	cfg, err := config.New().Load(projectPath)
	if err != nil {
		return domain.Config{}, err
	}
	if org, ok := args["organization"].(string); ok && org != "" {
		cfg.Organization = org
	}
	if ws, ok := args["workspace"].(bool); ok {
		cfg.Workspace = ws
	}
	if members, ok := args["members"].(string); ok && members != "" {
		cfg.Members = domain.ParseMembers(members)
	}
	return cfg, nil
}

func newVerifyService(cfg domain.Config) *application.VerifyService {
	return application.NewVerifyService(
		licensee.New(cfg.Detector),
		ripgrep.New(cfg.Coverage),
		manifest.New(),
		application.WithGitInfo(gitinfo.New()),
	)
}

// verifyResult is the tool payload: the report plus the failure, if any.
type verifyResult struct {
	Report   *domain.Report  `json:"report"`
	Error    string          `json:"error,omitempty"`
	Category domain.Category `json:"category,omitempty"`
	Code     string          `json:"code,omitempty"`
	Hint     string          `json:"hint,omitempty"`
}

func handleVerify(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, err := loadConfig(projectPath, request.GetArguments())
		if err != nil {
			return errorResult(fmt.Sprintf("loading configuration: %v", err)), nil
		}

		report, err := newVerifyService(cfg).Verify(ctx, projectPath, cfg)
		if report == nil {
			return errorResult(fmt.Sprintf("verification failed: %v", err)), nil
		}

		result := verifyResult{Report: report}
		if err != nil {
			result.Error = err.Error()
			result.Category = domain.CategoryOf(err)
			result.Code = domain.CodeOf(err)
			result.Hint = domain.HintOf(err)
		}
		return jsonResult(result)
	}
}

func handleResolveAttribution() server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		org, err := request.RequireString("organization")
		if err != nil {
			return errorResult("organization parameter is required"), nil
		}
		raw, _ := request.GetArguments()["attribution"].(string)

		attribution, err := verify.ResolveAttribution(raw, org, time.Now())
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(attribution), nil
	}
}

func handleCheckConsistency(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		filesStr, err := request.RequireString("files")
		if err != nil {
			return errorResult("files parameter is required"), nil
		}
		args := request.GetArguments()

		cfg, err := loadConfig(projectPath, args)
		if err != nil {
			return errorResult(fmt.Sprintf("loading configuration: %v", err)), nil
		}

		scope := domain.Scope{Name: domain.RootScopeName, Variant: domain.VariantRoot}
		if name, _ := args["scope"].(string); name != "" && name != domain.RootScopeName {
			scope = domain.Scope{Name: name, Variant: domain.VariantMember}
		}

		return jsonResult(verify.VerifyConsistency(splitAndTrim(filesStr), scope, cfg))
	}
}

func handleCheckManifest(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		license, err := request.RequireString("license")
		if err != nil {
			return errorResult("license parameter is required"), nil
		}

		rel, _ := request.GetArguments()["manifest"].(string)
		if rel == "" {
			rel = domain.DefaultManifestFile
		}
		path, err := withinProject(projectPath, rel)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		out, err := application.NewVerifyService(nil, nil, manifest.New()).CheckManifest(path, license)
		if domain.CategoryOf(err) == domain.CategoryInvocation {
			return errorResult(fmt.Sprintf("reading manifest: %v", err)), nil
		}
		return jsonResult(out)
	}
}

// withinProject resolves rel against projectPath and rejects paths that
// leave it.
func withinProject(projectPath, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("manifest path must be relative to the project root: %s", rel)
	}
	path := filepath.Join(projectPath, rel)
	back, err := filepath.Rel(projectPath, path)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("manifest path escapes the project root: %s", rel)
	}
	return path, nil
}

func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns an error content result.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
