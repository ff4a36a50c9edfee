// Motonomad is the command line client for the MotoNomad LLM gateway.
//
// It sends chat completions through OpenRouter (or a trusted proxy in front of
// it), lists the available models, validates API keys and generates trip
// suggestions. Every completed call is recorded in a local usage ledger.
//
// Usage:
//
//	# Send a single prompt
//	motonomad complete "Describe the Transalpina road"
//
//	# Stream the answer as it is generated
//	motonomad stream --model openai/gpt-4o-mini "Plan a weekend in the Tatras"
//
//	# Start an interactive chat session
//	motonomad chat
//
//	# List models matching a query
//	motonomad models --search gemma
//
//	# Generate trip suggestions
//	motonomad suggest --name "Bałkany" --start 2025-07-01 --end 2025-07-10 --transport motorcycle
//
//	# Show usage for the last week
//	motonomad usage summary --since 168h
//
// Configuration is read from config.yaml when present and from MOTONOMAD_*
// environment variables, which may also be placed in a .env file.
package main

func main() {
	Execute()
}
