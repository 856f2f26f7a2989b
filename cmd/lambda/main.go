package main

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-lambda-go/lambda"
	json "github.com/goccy/go-json"

	"github.com/json-to-terraform/constructs/internal/app"
	_ "github.com/json-to-terraform/constructs/internal/handler" // register kinds
	"github.com/json-to-terraform/constructs/internal/logger"
	"github.com/json-to-terraform/constructs/internal/manifest"
	"github.com/json-to-terraform/constructs/internal/property"
	"github.com/json-to-terraform/constructs/internal/render"
	"github.com/json-to-terraform/constructs/internal/result"
)

// LambdaEvent is the invocation payload (e.g. from API Gateway).
type LambdaEvent struct {
	Body        string   `json:"body"` // manifest YAML or JSON (raw or base64 if isBase64)
	IsBase64    bool     `json:"isBase64,omitempty"`
	Formats     []string `json:"formats,omitempty"`
	Separator   string   `json:"separator,omitempty"`
	IndexPolicy string   `json:"indexPolicy,omitempty"`
}

// LambdaResponse is returned to the client (API Gateway).
type LambdaResponse struct {
	StatusCode int               `json:"statusCode"`
	Success    bool              `json:"success"`
	Errors     []result.Error    `json:"errors,omitempty"`
	Warnings   []result.Warning  `json:"warnings,omitempty"`
	Files      map[string]string `json:"files,omitempty"` // filename -> content (base64)
}

// APIGatewayResponse is the shape expected by API Gateway proxy integration (body = JSON string).
type APIGatewayResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

func badRequest(typ, msg string) APIGatewayResponse {
	return wrap(LambdaResponse{
		StatusCode: 400,
		Errors:     []result.Error{{Type: typ, Severity: "error", Message: msg}},
	})
}

func handler(_ context.Context, event LambdaEvent) (APIGatewayResponse, error) {
	body := event.Body
	if event.IsBase64 {
		dec, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return badRequest("invalid_input", "invalid base64 body: "+err.Error()), nil
		}
		body = string(dec)
	}

	m, err := manifest.Parse([]byte(body))
	if err != nil {
		return badRequest("invalid_manifest", err.Error()), nil
	}

	opts := app.DefaultOptions()
	opts.Logger = logger.Default
	if event.Separator != "" {
		opts.Separator = event.Separator
	}
	if opts.IndexPolicy, err = property.ParseIndexPolicy(event.IndexPolicy); err != nil {
		return badRequest("invalid_input", err.Error()), nil
	}
	if len(event.Formats) > 0 {
		if opts.Formats, err = render.ParseFormats(event.Formats); err != nil {
			return badRequest("invalid_input", err.Error()), nil
		}
	}

	res, err := app.New(opts).Synthesize(m)
	if err != nil {
		logger.LogError(logger.Default, "synthesize", err)
		return wrap(LambdaResponse{
			StatusCode: 500,
			Errors:     []result.Error{{Type: "synthesis_error", Severity: "error", Message: err.Error()}},
		}), nil
	}

	out := LambdaResponse{StatusCode: 200, Success: res.Success, Errors: res.Errors, Warnings: res.Warnings}
	if res.Success && len(res.Files) > 0 {
		out.Files = make(map[string]string, len(res.Files))
		for name, content := range res.Files {
			out.Files[name] = base64.StdEncoding.EncodeToString(content)
		}
	}
	if !res.Success {
		out.StatusCode = 422
	}
	return wrap(out), nil
}

func wrap(out LambdaResponse) APIGatewayResponse {
	bodyBytes, _ := json.Marshal(out)
	return APIGatewayResponse{
		StatusCode: out.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(bodyBytes),
	}
}

func main() {
	lambda.Start(handler)
}
