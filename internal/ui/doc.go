// Package ui implements an interactive match review interface using bubbletea's Elm architecture.
//
// The TUI lists stored matches that have not been verified by hand, lowest confidence first:
//  1. [ListView] : Browse matches with their confidence band
//  2. [DetailView] : Compare the source and target snapshots side by side
//
// Pressing v marks the selected match as verified and u clears the flag, both through
// [models.MatchStore.UpdateMatchVerification]. Verified matches stay in the list until it is reloaded.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, v/u, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
