// Package tripplanner turns trip details into a route description and a short
// list of places to see, using a chat completion in Polish.
//
// The model is asked to answer in a fixed layout:
//
//	OPIS:
//	<route description>
//
//	ATRAKCJE:
//	- <place 1>
//	- <place 2>
//
// ParseSuggestion reads that layout back into a Suggestion.
package tripplanner
