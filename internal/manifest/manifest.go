// Package manifest implements addresskit's package metadata cache (spec
// §4.7, component C7): a file-backed, time-tiered cache over the upstream
// authority package manifest, plus the manifest's own JSON shape and
// active-resource selection (spec §6.1).
package manifest

import (
	"encoding/json"
	"fmt"
)

// Resource is one entry in the manifest's resources array.
type Resource struct {
	State    string `json:"state"`
	MIMEType string `json:"mimetype"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// Document is the manifest's JSON shape: {result: {resources: [...]}}.
type Document struct {
	Result struct {
		Resources []Resource `json:"resources"`
	} `json:"result"`
}

// ParseDocument decodes body as a Document.
func ParseDocument(body []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("manifest: decoding document: %w", err)
	}
	return &doc, nil
}

// ActiveZip returns the first resource with state "active" and mimetype
// "application/zip" (spec §6.1), the archive the orchestrator fetches.
func (d *Document) ActiveZip() (Resource, bool) {
	for _, r := range d.Result.Resources {
		if r.State == "active" && r.MIMEType == "application/zip" {
			return r, true
		}
	}
	return Resource{}, false
}
