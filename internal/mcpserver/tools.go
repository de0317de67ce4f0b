package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the scamcheck MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolListCategories = mcp.NewTool("list_categories",
	mcp.WithDescription(
		"List the situations scamcheck can assess (bank transfer, crypto payment, marketplace purchase, job offer and so on). "+
			"Use this first to pick the category that matches what the user describes. "+
			"Pick 'other' when nothing fits; its first question routes to a better category."),
)

var ToolGetFlow = mcp.NewTool("get_flow",
	mcp.WithDescription(
		"Get the questionnaire for one category: every question in order with its allowed answer values. "+
			"Some answers skip ahead; those jumps are listed. "+
			"Ask the user these questions, then pass their answer values to assess."),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Category id from list_categories (e.g. 'crypto-payment')")),
)

var ToolAssess = mcp.NewTool("assess",
	mcp.WithDescription(
		"Classify a completed questionnaire and return the risk level (high, neutral or low) with the red flags "+
			"and missed best practices behind it. Answers are the option values in the order the questions were asked, "+
			"following any jumps."),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Category id from list_categories")),
	mcp.WithArray("answers",
		mcp.Required(),
		mcp.WithStringItems(),
		mcp.Description("Option values in answer order, e.g. [\"yes\", \"no\", \"dont-know\"]")),
)
