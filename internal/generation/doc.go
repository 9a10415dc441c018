// Package generation defines the boundary between the pipeline core and
// external LLM providers. The pipeline depends only on the interfaces here,
// never on a concrete provider, so tests can inject stubs and deployments
// can switch providers through configuration.
package generation
