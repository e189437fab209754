package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleGetNewFileStructure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	return mcp.NewToolResultText(s.desk.SuggestStructure(ctx, stringArg(args, "fileList"), stringArg(args, "userPreference"))), nil
}

func (s *Server) handleSummarizeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	return mcp.NewToolResultText(s.desk.SummarizeFile(ctx, stringArg(args, "filePath"))), nil
}

func (s *Server) handleGetDesktopFiles(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	filter, ok := args["fileExtensionFilter"]
	if !ok || filter == nil {
		filter = "All"
	}
	return mcp.NewToolResultText(s.desk.ListFiles(fmt.Sprint(filter))), nil
}

func (s *Server) handleReadFileContent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	return mcp.NewToolResultText(s.desk.ReadFileHead(stringArg(args, "filePath"))), nil
}

func (s *Server) handleMoveFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	return mcp.NewToolResultText(s.desk.MoveFile(ctx, stringArg(args, "filePath"), stringArg(args, "destinationPath"))), nil
}

func (s *Server) handleMoveIntoFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	return mcp.NewToolResultText(s.desk.MoveIntoFolder(ctx, stringArg(args, "fileOrFolderPath"), stringArg(args, "destinationFolder"))), nil
}

func (s *Server) handleBulkMoveFilesIntoFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	folder := stringArg(args, "destinationFolder")

	paths, err := stringListArg(args, "filePaths")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error moving files to %s. %s", folder, err)), nil
	}
	return mcp.NewToolResultText(s.desk.BulkMoveIntoFolder(ctx, paths, folder)), nil
}

func (s *Server) handleMoveAllFilesIntoFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	return mcp.NewToolResultText(s.desk.MoveAllIntoFolder(ctx, stringArg(args, "destinationFolder"))), nil
}

func (s *Server) handleDeleteEmptyFolders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.desk.DeleteEmptyFolders(ctx)), nil
}

func (s *Server) handleCountFiles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(strconv.Itoa(s.desk.CountFiles())), nil
}

func (s *Server) handleRestoreDesktop(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.desk.RestoreDesktop(ctx)), nil
}

// stringArg reads a string argument. Missing or null is "", other scalars are
// formatted so a number path still reaches the action.
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// stringListArg accepts a JSON array of strings. Some models send the array
// encoded as a string, or a comma-separated string; both are accepted.
func stringListArg(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("Item %d of %s is not a string.", i, key)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(list)
		if strings.HasPrefix(trimmed, "[") {
			var out []string
			if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
				return out, nil
			}
		}
		var out []string
		for _, part := range strings.Split(trimmed, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of paths.", key)
	}
}
