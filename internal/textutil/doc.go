// Package textutil provides text processing utilities for fingerprinting,
// similarity, title normalization, and filename sanitization.
//
// Search result de-duplication relies on token-based fingerprints compared
// with cosine similarity. The tokenization process lowercases text, splits
// on non-alphanumeric characters, and filters tokens shorter than 3
// characters. Title normalization cleans up scene-style release names into
// display titles.
package textutil
