// Package workload produces deterministic work item sequences.
//
// Both cohorts of a comparison must execute the exact same items, in the
// same order, for the overhead numbers to mean anything. Every item is
// derived purely from (seed, index, size mode): generating item 42 in
// isolation yields the same bytes as generating items 0..42 in sequence,
// in any process, on any machine.
package workload

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// SizeMode selects the payload size distribution.
type SizeMode string

const (
	SizeSmall  SizeMode = "small"
	SizeMedium SizeMode = "medium"
	SizeLarge  SizeMode = "large"
	SizeMixed  SizeMode = "mixed"
)

// Item is a single opaque unit of work. Immutable once generated.
type Item struct {
	ID          int    `json:"id"`
	Payload     string `json:"payload"`
	ScenarioTag string `json:"scenario_tag"`
}

// Spec describes a reproducible workload sequence. It round-trips through
// JSON so the isolation layer can hand it to a cohort process.
type Spec struct {
	Seed     int64    `json:"seed"`
	Count    int      `json:"count"`
	SizeMode SizeMode `json:"size_mode"`
}

var scenarios = []string{"checkout", "search", "ingest", "auth", "export"}

var words = []string{
	"order", "invoice", "customer", "shipment", "ledger", "quota",
	"session", "token", "catalog", "replica", "batch", "cursor",
	"payload", "queue", "shard", "bucket", "offset", "digest",
}

// payloadChars returns the payload length for a size class.
func payloadChars(rng *rand.Rand, mode SizeMode) int {
	switch mode {
	case SizeSmall:
		return 64 + rng.IntN(64)
	case SizeMedium:
		return 512 + rng.IntN(512)
	case SizeLarge:
		return 4096 + rng.IntN(4096)
	case SizeMixed:
		// Weighted toward small items, matching typical request mixes.
		switch rng.IntN(10) {
		case 0, 1:
			return 4096 + rng.IntN(4096)
		case 2, 3, 4:
			return 512 + rng.IntN(512)
		default:
			return 64 + rng.IntN(64)
		}
	default:
		return 64 + rng.IntN(64)
	}
}

// mix folds seed and index into the two PCG stream words. The constants are
// splitmix64 increments; the only requirement is that distinct (seed, index)
// pairs land on distinct streams.
func mix(seed int64, index int) (uint64, uint64) {
	a := uint64(seed) ^ 0x9e3779b97f4a7c15
	b := uint64(index)*0xbf58476d1ce4e5b9 + 0x94d049bb133111eb
	return a, b
}

// Generate returns the item at index for the given seed and size mode.
// The result is byte-identical across calls, processes, and machines.
func Generate(seed int64, index int, mode SizeMode) Item {
	rng := rand.New(rand.NewPCG(mix(seed, index)))

	tag := scenarios[rng.IntN(len(scenarios))]
	n := payloadChars(rng, mode)

	var sb strings.Builder
	sb.Grow(n + 16)
	fmt.Fprintf(&sb, "%s-%d:", tag, index)
	for sb.Len() < n {
		sb.WriteString(words[rng.IntN(len(words))])
		sb.WriteByte(' ')
	}

	return Item{
		ID:          index,
		Payload:     sb.String()[:n],
		ScenarioTag: tag,
	}
}

// GenerateBatch returns count items starting at startIndex. The batch equals
// the concatenation of single Generate calls at the same indices.
func GenerateBatch(seed int64, count int, mode SizeMode, startIndex int) []Item {
	items := make([]Item, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, Generate(seed, startIndex+i, mode))
	}
	return items
}

// Items materializes the full sequence a Spec describes.
func (s Spec) Items() []Item {
	return GenerateBatch(s.Seed, s.Count, s.SizeMode, 0)
}
