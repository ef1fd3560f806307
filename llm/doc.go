// Package llm is the language-model capability used by the analysis and
// critique steps.
//
// A Template is a role-tagged prompt (system + user) with {name} bindings.
// Model renders a template and returns the generated text. ChatModel adapts
// any eino chat model; NewOpenAIModel builds one against the OpenAI API.
// Failures come back as *ModelError, classified so RetryingModel can retry
// timeouts and rate limits with bounded backoff and give up immediately on
// authentication or malformed requests.
package llm
