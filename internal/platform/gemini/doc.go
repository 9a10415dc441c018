// Package gemini implements the generation.Provider interface using
// Google's Gemini API. Gemini is a generate-only provider: it does not
// implement the batch capability.
package gemini
