// internal/rulebook/schema.go
package rulebook

// catalogSchema is the JSON schema every rulebook file must satisfy before
// the invariant checks run. Structural validation lives here; cross-field
// rules (share totals, weight sums) are enforced in checkInvariants.
const catalogSchema = `{
  "type": "object",
  "required": ["version", "categories", "articles"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "categories": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "share"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "share": {"type": "number", "exclusiveMinimum": 0}
        }
      }
    },
    "articles": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "category", "weight", "requirement", "keywords"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1},
          "weight": {"type": "number", "exclusiveMinimum": 0},
          "critical": {"type": "boolean"},
          "requirement": {"type": "string", "minLength": 1},
          "keywords": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "recommendation": {"type": "string"}
        }
      }
    },
    "capital_requirements": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["name", "minimum_capital"],
        "properties": {
          "name": {"type": "string"},
          "minimum_capital": {"type": "number", "exclusiveMinimum": 0},
          "description": {"type": "string"}
        }
      }
    },
    "experts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "specialization", "categories"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "specialization": {"type": "string"},
          "contact": {"type": "string"},
          "categories": {"type": "array", "items": {"type": "string"}},
          "article_mapping": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "programs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "categories"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "duration": {"type": "string"},
          "focus_areas": {"type": "array", "items": {"type": "string"}},
          "categories": {"type": "array", "items": {"type": "string"}},
          "website": {"type": "string"},
          "always_include": {"type": "boolean"}
        }
      }
    }
  }
}`
