// Package cache implements the four-layer semantic cache: exact-match,
// embedding-similarity, intent, and raw-embedding sub-caches, all backed by
// Redis so cache state survives process restarts and is shared across
// orchestrator replicas.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// normalizeQuery lowercases and collapses whitespace so near-identical
// queries ("What is  the Labour Act?" vs "what is the labour act?") hash to
// the same exact-cache key.
func normalizeQuery(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	return strings.Join(fields, " ")
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// exactKey builds the exact-match cache key for a normalized query and user
// type.
func exactKey(userType model.UserType, normalizedQuery string) string {
	return fmt.Sprintf("cache:exact:%s:%s", userType, md5Hex(normalizedQuery))
}

func exactMetaKey(userType model.UserType, normalizedQuery string) string {
	return exactKey(userType, normalizedQuery) + ":meta"
}

// semanticIndexKey builds the per-user-type semantic index key used by the
// similarity cache layer.
func semanticIndexKey(userType model.UserType) string {
	return fmt.Sprintf("semantic_index:%s", userType)
}

// intentKey builds the intent sub-cache key for a raw query.
func intentKey(query string) string {
	return fmt.Sprintf("cache:intent:%s", md5Hex(strings.ToLower(query)))
}

// embeddingKey builds the embedding sub-cache key for a raw query.
func embeddingKey(query string) string {
	return fmt.Sprintf("cache:embedding:%s", md5Hex(query))
}
