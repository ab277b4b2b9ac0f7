package brightdata

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/brightdata/errs"
	"github.com/adamwoolhether/brightdata/snapshot"
)

const (
	chatGPTDatasetID = "gd_m7aof0k82r803d5bjm"
	chatGPTTargetURL = "https://chatgpt.com/"
)

// ChatGPTOption sets per-prompt parameters for [Client.ScrapeChatGPT].
// Each option accepts either a single value broadcast to every prompt
// or exactly one value per prompt.
type ChatGPTOption func(*chatGPTOpts)

type chatGPTOpts struct {
	countries         []string
	additionalPrompts []string
	webSearch         []bool
}

// WithChatGPTCountries sets the proxy countries, one per prompt or one
// for all.
func WithChatGPTCountries(countries ...string) ChatGPTOption {
	return func(o *chatGPTOpts) {
		o.countries = countries
	}
}

// WithAdditionalPrompts sets follow-up prompts sent after the first
// answer, one per prompt or one for all.
func WithAdditionalPrompts(prompts ...string) ChatGPTOption {
	return func(o *chatGPTOpts) {
		o.additionalPrompts = prompts
	}
}

// WithWebSearch toggles ChatGPT's web-search button, one flag per
// prompt or one for all.
func WithWebSearch(flags ...bool) ChatGPTOption {
	return func(o *chatGPTOpts) {
		o.webSearch = flags
	}
}

// ScrapeChatGPT triggers a ChatGPT dataset collection job for the
// given prompts and returns the snapshot id for a later
// [Client.DownloadSnapshot].
func (c *Client) ScrapeChatGPT(ctx context.Context, prompts []string, optFns ...ChatGPTOption) (*snapshot.TriggerResponse, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: at least one prompt is required", errs.ErrValidation)
	}

	var opts chatGPTOpts
	for _, opt := range optFns {
		opt(&opts)
	}

	countries, err := broadcast(opts.countries, len(prompts), "country")
	if err != nil {
		return nil, err
	}
	additional, err := broadcast(opts.additionalPrompts, len(prompts), "additional_prompt")
	if err != nil {
		return nil, err
	}
	webSearch, err := broadcast(opts.webSearch, len(prompts), "web_search")
	if err != nil {
		return nil, err
	}

	items := make([]snapshot.TriggerItem, len(prompts))
	for i, prompt := range prompts {
		items[i] = snapshot.TriggerItem{
			URL:              chatGPTTargetURL,
			Prompt:           prompt,
			Country:          countries[i],
			AdditionalPrompt: additional[i],
			WebSearch:        webSearch[i],
		}
	}

	ctx, span := c.tracer.Start(ctx, "brightdata.scrape_chatgpt",
		trace.WithAttributes(attribute.Int("prompts.count", len(prompts))))
	defer span.End()

	return c.snapshots.Trigger(ctx, chatGPTDatasetID, items)
}

// broadcast expands a per-prompt parameter list: empty stays zero
// valued, a single value applies to every prompt, and any other length
// must match the prompt count.
func broadcast[T any](vals []T, n int, name string) ([]T, error) {
	switch len(vals) {
	case 0:
		return make([]T, n), nil
	case 1:
		out := make([]T, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	case n:
		return vals, nil
	default:
		return nil, fmt.Errorf("%w: %s list must have the same length as prompts", errs.ErrValidation, name)
	}
}
