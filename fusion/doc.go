// Package fusion combines per-modality outputs into a single fused result.
//
// Strategies are pure functions over (outputs, weights) keyed by fusion mode
// in a strategy table, which keeps the table open for extension without
// inheritance. Late fusion is fully implemented; early and hybrid fusion are
// placeholders that currently delegate to late fusion pending feature-level
// fusion support.
package fusion
