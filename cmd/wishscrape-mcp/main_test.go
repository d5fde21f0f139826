package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/wishscrape/models"
)

type stubScraper struct {
	rec models.ProductRecord
	err error
}

func (s stubScraper) ScrapeProduct(context.Context, string) (models.ProductRecord, error) {
	return s.rec, s.err
}

func callTool(t *testing.T, svc productScraper, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = "lookup_product"
	req.Params.Arguments = args

	res, err := handleLookupProduct(svc)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("content = %+v", res.Content)
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return tc.Text
}

func TestLookupProduct(t *testing.T) {
	price := 24.99
	res := callTool(t, stubScraper{rec: models.ProductRecord{Name: "Wireless Mouse", Price: &price}},
		map[string]any{"url": "https://shop.example.com/p/1"})

	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var rec models.ProductRecord
	if err := json.Unmarshal([]byte(resultText(t, res)), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Wireless Mouse" || rec.Price == nil || *rec.Price != price {
		t.Errorf("record = %+v", rec)
	}
}

func TestLookupProduct_Errors(t *testing.T) {
	res := callTool(t, stubScraper{}, map[string]any{})
	if !res.IsError {
		t.Error("missing url should be a tool error")
	}

	fetchErr := models.NewScrapeError(models.ErrCodeFetchFailed, models.MsgFetchFailed, errors.New("HTTP 503"))
	res = callTool(t, stubScraper{err: fetchErr}, map[string]any{"url": "https://shop.example.com/p/1"})
	if !res.IsError {
		t.Fatal("fetch failure should be a tool error")
	}
	if got, want := resultText(t, res), "[FETCH_FAILED] "+models.MsgFetchFailed; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}
