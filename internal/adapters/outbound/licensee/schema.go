package licensee

// outputSchema is the subset of `licensee detect --json` output the adapter
// relies on. Extra fields are allowed.
const outputSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["matched_files"],
  "properties": {
    "licenses": {"type": "array"},
    "matched_files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["filename"],
        "properties": {
          "filename": {"type": "string", "minLength": 1},
          "matched_license": {"type": ["string", "null"]},
          "attribution": {"type": ["string", "null"]},
          "matcher": {
            "type": ["object", "null"],
            "properties": {
              "name": {"type": "string"},
              "confidence": {"type": ["number", "null"]}
            }
          }
        }
      }
    }
  }
}`
