package openai

// tokenParam selects which token-limit parameter a model accepts.
type tokenParam int

const (
	tokenParamMax tokenParam = iota
	tokenParamMaxCompletion
	tokenParamNone
)

// capability describes how a model's request must be shaped. New models are
// added as table entries, not code paths.
type capability struct {
	// schema enables structured-output mode with the strict schema.
	schema bool
	// developerRole sends the system instruction under the developer role.
	developerRole bool
	// temperature pins temperature to zero; the reasoning models reject the
	// parameter entirely.
	temperature bool
	tokens      tokenParam
}

var capabilities = map[string]capability{
	"gpt-4o":       {schema: true, temperature: true, tokens: tokenParamMax},
	"gpt-4o-mini":  {schema: true, temperature: true, tokens: tokenParamMax},
	"gpt-4.1":      {schema: true, temperature: true, tokens: tokenParamMax},
	"gpt-4.1-mini": {schema: true, temperature: true, tokens: tokenParamMax},
	"gpt-5.1":      {schema: true, developerRole: true, tokens: tokenParamMaxCompletion},
	"o1":           {schema: true, developerRole: true, tokens: tokenParamNone},
	"o3-mini":      {schema: true, developerRole: true, tokens: tokenParamNone},
	"o4-mini":      {schema: true, developerRole: true, tokens: tokenParamNone},
}

// defaultCapability covers models absent from the table: no schema support,
// so the textual JSON instructions are appended to the prompt instead.
var defaultCapability = capability{temperature: true, tokens: tokenParamMax}

func capabilityFor(model string) capability {
	if c, ok := capabilities[model]; ok {
		return c
	}
	return defaultCapability
}
