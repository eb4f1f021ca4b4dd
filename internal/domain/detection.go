package domain

// FileMatch is a single file in which the license detector recognized a
// license reference.
type FileMatch struct {
	Filename    string `json:"filename"`
	LicenseID   string `json:"matched_license"`
	Attribution string `json:"attribution,omitempty"`
	Matcher     string `json:"matcher,omitempty"`
	Confidence  int    `json:"confidence,omitempty"`
}

// DetectionResult is the output of one detector run against one directory.
// Matches keep the detector's order and are never mutated after detection.
type DetectionResult struct {
	Dir     string      `json:"dir"`
	Matches []FileMatch `json:"matched_files"`
}

// Filenames returns the matched filenames in detection order.
func (r *DetectionResult) Filenames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		names = append(names, m.Filename)
	}
	return names
}

// LicenseIDs returns the distinct matched license identifiers in detection order.
func (r *DetectionResult) LicenseIDs() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool, len(r.Matches))
	var ids []string
	for _, m := range r.Matches {
		if m.LicenseID == "" || seen[m.LicenseID] {
			continue
		}
		seen[m.LicenseID] = true
		ids = append(ids, m.LicenseID)
	}
	return ids
}

// Filter returns a result restricted to the given filename.
func (r *DetectionResult) Filter(filename string) *DetectionResult {
	out := &DetectionResult{}
	if r == nil {
		return out
	}
	out.Dir = r.Dir
	for _, m := range r.Matches {
		if m.Filename == filename {
			out.Matches = append(out.Matches, m)
		}
	}
	return out
}

// LicenseFor returns the license identifier detected in filename.
// The boolean is false when the file was not matched or carries no identifier.
func (r *DetectionResult) LicenseFor(filename string) (string, bool) {
	filtered := r.Filter(filename)
	if len(filtered.Matches) == 0 || filtered.Matches[0].LicenseID == "" {
		return "", false
	}
	return filtered.Matches[0].LicenseID, true
}

// AttributionFor returns the raw attribution text detected in filename,
// or "" when there is none.
func (r *DetectionResult) AttributionFor(filename string) string {
	filtered := r.Filter(filename)
	if len(filtered.Matches) == 0 {
		return ""
	}
	return filtered.Matches[0].Attribution
}
