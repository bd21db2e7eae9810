package job

import (
	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/ss7kit/engine"
)

// SchemaID is the $id of the job schema.
const SchemaID = "https://github.com/randalmurphal/ss7kit/job.schema.json"

// Schema returns the JSON Schema of the job file format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(&Job{})
	s.ID = SchemaID
	s.Title = "ss7kit job"
	return s
}

// JSONSchemaExtend adds the allowed identifiers to the step schema.
func (Step) JSONSchemaExtend(s *jsonschema.Schema) {
	if p, ok := s.Properties.Get("op"); ok {
		for _, op := range Ops() {
			p.Enum = append(p.Enum, string(op))
		}
		p.Description = "Session operation"
	}
	if p, ok := s.Properties.Get("result"); ok {
		for _, r := range engine.ResultSlots() {
			p.Enum = append(p.Enum, string(r), r.Alias())
		}
		p.Description = "Result slot by engine name or alias"
	}
	if p, ok := s.Properties.Get("stage"); ok {
		for _, st := range engine.Stages() {
			p.Enum = append(p.Enum, string(st), st.Alias())
		}
		p.Description = "Calculation stage by engine name or alias"
	}
}
