package classifier

import (
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/xaenox/time-bot/internal/models"
)

const (
	SchemaTimeEntry             = "time_entry"
	SchemaTaskEntry             = "task_entry"
	SchemaMessageClassification = "message_classification"
)

// TimeEntrySchema mirrors models.TimeEntry field for field.
func TimeEntrySchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title":      {Type: jsonschema.String, Description: "Short activity title in the message language"},
			"raw_text":   {Type: jsonschema.String, Description: "The original message, verbatim"},
			"minutes":    {Type: jsonschema.Integer, Description: "Duration in minutes, 1..720"},
			"date":       {Type: jsonschema.String, Description: "YYYY-MM-DD"},
			"start_time": {Type: jsonschema.String, Description: "HH:MM, only when stated explicitly"},
			"maintag":    {Type: jsonschema.String, Enum: enumOf(models.Maintags)},
			"subtag":     {Type: jsonschema.String, Enum: enumOf(models.Subtags)},
			"comment":    {Type: jsonschema.String},
		},
		Required: []string{"title", "raw_text", "minutes", "date", "maintag"},
	}
}

// TaskEntrySchema mirrors models.TaskEntry.
func TaskEntrySchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title":    {Type: jsonschema.String, Description: "Short task title in the message language"},
			"raw_text": {Type: jsonschema.String, Description: "The original message, verbatim"},
			"due":      {Type: jsonschema.String, Description: "YYYY-MM-DD or null when no deadline is given"},
			"project": {
				Type:  jsonschema.Array,
				Items: &jsonschema.Definition{Type: jsonschema.String, Enum: enumOf(models.ProjectTags)},
			},
		},
		Required: []string{"title", "raw_text", "project"},
	}
}

// MessageClassificationSchema mirrors models.MessageClassification.
func MessageClassificationSchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"intent":      {Type: jsonschema.String, Enum: enumOf(models.Intents)},
			"raw_text":    {Type: jsonschema.String},
			"explanation": {Type: jsonschema.String},
		},
		Required: []string{"intent", "raw_text"},
	}
}

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
