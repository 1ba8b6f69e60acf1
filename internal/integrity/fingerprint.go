// Package integrity computes configuration fingerprints used to detect
// watched-path configuration changes.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// emptyConfig stands in for a configuration without a config object.
var emptyConfig = []byte("null")

// ComputeConfigFingerprint returns the SHA-256 of the canonical config object.
// Envelope fields (id, by, at) are excluded: a re-save of an identical
// configuration must not invalidate the cache.
func ComputeConfigFingerprint(cfg *model.AgentConfiguration) (model.HashValue, error) {
	raw := emptyConfig
	if cfg != nil && len(cfg.Raw) > 0 {
		raw = cfg.Raw
	}

	data, err := CanonicalJSON(raw)
	if err != nil {
		return "", fmt.Errorf("canonical config: %w", err)
	}

	hash := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(hash[:])), nil
}
