package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/wishscrape/config"
	"github.com/use-agent/wishscrape/lookup"
	"github.com/use-agent/wishscrape/models"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP protocol, so logs go to stderr.
	logger := config.NewLogger(cfg.Log, os.Stderr)

	svc, _, err := lookup.FromConfig(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"wishscrape",
		config.Version,
		server.WithToolCapabilities(false),
	)

	lookupTool := mcp.NewTool("lookup_product",
		mcp.WithDescription("Fetch a product page and return its name, brand, price, image and description as JSON. Fields that could not be found are omitted."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) URL of the product page"),
		),
	)
	s.AddTool(lookupTool, handleLookupProduct(svc))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// productScraper is the part of lookup.Service the tool needs.
type productScraper interface {
	ScrapeProduct(ctx context.Context, rawURL string) (models.ProductRecord, error)
}

func handleLookupProduct(svc productScraper) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		rec, err := svc.ScrapeProduct(ctx, url)
		if err != nil {
			var se *models.ScrapeError
			if errors.As(err, &se) {
				return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", se.Code, se.Message)), nil
			}
			return mcp.NewToolResultError("lookup failed"), nil
		}

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode product: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
