package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/smap/smap/internal/packgroup"
)

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve [root]",
	Short: "Serve a pack group's files over the Model Context Protocol on stdio",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMCPServe,
}

type listFilesInput struct {
	Directory string `json:"directory" jsonschema:"directory prefix to list files under, empty for every file"`
}

type listFilesOutput struct {
	Files []string `json:"files"`
}

type readFileInput struct {
	Path string `json:"path" jsonschema:"logical path of the file to read"`
}

type readFileOutput struct {
	Contents string `json:"contents"`
}

type hasDirectoryInput struct {
	Directory string `json:"directory" jsonschema:"directory prefix to check for"`
}

type hasDirectoryOutput struct {
	Exists bool `json:"exists"`
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	var rootArg string
	if len(args) == 1 {
		rootArg = args[0]
	}
	root, err := resolvedPacksRoot(rootArg)
	if err != nil {
		return err
	}

	extension := ""
	if toolCfg != nil {
		extension = toolCfg.PackExtension
	}
	group, err := packgroup.New(root, extension)
	if err != nil {
		return err
	}
	if toolCfg != nil {
		group.SetVerifyConcurrency(toolCfg.WalkerConcurrency)
	}
	if err := group.Load(cmd.Context()); err != nil {
		return err
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "smap", Version: "0.1.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List every logical path in the pack group under an optional directory prefix.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in listFilesInput) (*mcp.CallToolResult, listFilesOutput, error) {
		files := group.ListFiles(in.Directory)
		sort.Strings(files)
		return nil, listFilesOutput{Files: files}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_file",
		Description: "Read a logical path's decoded contents as UTF-8 text.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in readFileInput) (*mcp.CallToolResult, readFileOutput, error) {
		r, err := group.GetFileReader(ctx, in.Path)
		if err != nil {
			return nil, readFileOutput{}, err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, readFileOutput{}, err
		}
		return nil, readFileOutput{Contents: string(data)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "has_directory",
		Description: "Report whether any file resolves under the given directory prefix.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in hasDirectoryInput) (*mcp.CallToolResult, hasDirectoryOutput, error) {
		return nil, hasDirectoryOutput{Exists: group.HasDirectory(in.Directory)}, nil
	})

	fmt.Fprintln(cmd.ErrOrStderr(), "smap mcp-serve: listening on stdio")
	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}
