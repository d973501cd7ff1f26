// Copyright (c) 2026 Targeted Entropy.
// SPDX-License-Identifier: Apache-2.0

package curse

import (
	"encoding/json"
	"fmt"
)

// ProjectInfo is the resolved metadata for one project identity. NotFound
// marks a cached sentinel: the project was confirmed absent upstream and
// future runs should not ask again.
type ProjectInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	NotFound bool   `json:"notFound,omitempty"`
}

// FileInfo is the resolved metadata for one (project, file) pair.
type FileInfo struct {
	ProjectID   string `json:"projectID"`
	ID          string `json:"id"`
	FileName    string `json:"fileName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	URL         string `json:"url,omitempty"`
	NotFound    bool   `json:"notFound,omitempty"`
}

// The cache stores payloads as opaque bytes; this file owns their format.
// Encode never fails for these shapes, so failures surface only on decode of
// a foreign or corrupt payload.

// EncodeProject serializes metadata for the cache.
func EncodeProject(p *ProjectInfo) []byte {
	b, _ := json.MarshalIndent(p, "", "  ")
	return b
}

// DecodeProject parses a cached payload. An error means the payload is
// corrupt and should be treated as a cache miss.
func DecodeProject(data []byte) (*ProjectInfo, error) {
	var p ProjectInfo
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("corrupt project payload: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("corrupt project payload: missing id")
	}
	return &p, nil
}

// EncodeFile serializes file metadata for the cache.
func EncodeFile(f *FileInfo) []byte {
	b, _ := json.MarshalIndent(f, "", "  ")
	return b
}

// DecodeFile parses a cached file payload.
func DecodeFile(data []byte) (*FileInfo, error) {
	var f FileInfo
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("corrupt file payload: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("corrupt file payload: missing id")
	}
	return &f, nil
}
