// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// RawDiff renders an ASCII structural diff of the two raw manifest documents.
// Returns ("", nil) when the documents are identical. This bypasses the
// identity model entirely and is only meant for eyeballing manifests whose
// shape drifted from what Diff understands.
func RawDiff(oldJSON, newJSON []byte) (string, error) {
	differ := gojsondiff.New()

	delta, err := differ.Compare(oldJSON, newJSON)
	if err != nil {
		return "", fmt.Errorf("failed to compare manifests: %w", err)
	}

	if !delta.Modified() {
		return "", nil
	}

	var jdoc map[string]interface{}
	if err := json.Unmarshal(oldJSON, &jdoc); err != nil {
		return "", fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	config := formatter.AsciiFormatterConfig{
		ShowArrayIndex: false,
		Coloring:       false,
	}

	f := formatter.NewAsciiFormatter(jdoc, config)
	out, err := f.Format(delta)
	if err != nil {
		return "", err
	}

	return out, nil
}
