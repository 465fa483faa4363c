package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/server"
	"github.com/teemow/ohq-bluejeans/internal/store"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, so the documentation stays in sync with the tool
definitions. No credentials are needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := generateDocs()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// docsServerContext builds a server context whose client is never contacted.
func docsServerContext(ctx context.Context) (*server.ServerContext, error) {
	client := bluejeans.NewClient("docs", "docs")
	b := backend.New(backend.Config{}, client)
	return server.NewServerContext(ctx, server.Config{
		Client:      client,
		Backend:     b,
		Provisioner: store.NewProvisioner(b, client, store.NewMemoryStore(), store.NewMemoryLocker(), nil),
		StoreType:   "memory",
	})
}

// registeredTools returns the tools registered in the given mode, by name.
func registeredTools(sc *server.ServerContext, readOnly bool) (map[string]mcp.Tool, error) {
	mcpSrv := mcpserver.NewMCPServer("ohq-bluejeans", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)
	if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
		return nil, err
	}

	tools := make(map[string]mcp.Tool)
	for name, serverTool := range mcpSrv.ListTools() {
		tools[name] = serverTool.Tool
	}
	return tools, nil
}

func generateDocs() (string, error) {
	sc, err := docsServerContext(context.Background())
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = sc.Shutdown()
	}()

	readTools, err := registeredTools(sc, true)
	if err != nil {
		return "", err
	}
	allTools, err := registeredTools(sc, false)
	if err != nil {
		return "", err
	}

	tools := make([]mcp.Tool, 0, len(allTools))
	writeTools := make(map[string]bool)
	for name, tool := range allTools {
		tools = append(tools, tool)
		if _, ok := readTools[name]; !ok {
			writeTools[name] = true
		}
	}
	slices.SortFunc(tools, func(a, b mcp.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})

	return generateToolsMarkdown(tools, writeTools), nil
}

func generateToolsMarkdown(tools []mcp.Tool, writeTools map[string]bool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running ohq-bluejeans as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sb.WriteString("## Read-Only Mode\n\n")
	sb.WriteString("The server starts read-only. Tools marked *write* are only registered with `serve --yolo`.\n\n")

	sb.WriteString("## BlueJeans Tools\n\n")
	for _, tool := range tools {
		sb.WriteString(generateToolMarkdown(tool, writeTools[tool.Name]))
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool, write bool) string {
	var sb strings.Builder

	if write {
		sb.WriteString(fmt.Sprintf("### %s (*write*)\n\n", tool.Name))
	} else {
		sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))
	}

	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	if len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		slices.Sort(propNames)

		for _, name := range propNames {
			propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
			if !ok {
				continue
			}

			requiredStr := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				requiredStr = "required"
			}

			sb.WriteString(fmt.Sprintf("- `%s` (%s): ", name, requiredStr))
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", getPropertyType(propMap)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
