package serializers

// AttributeInput renames a tag or ingredient. Name is required unless partial.
type AttributeInput struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=255"`
}

func (in *AttributeInput) Validate(partial bool) error {
	trimString(in.Name)
	verr := validateStruct(in)
	if !partial && in.Name == nil {
		verr.add("name", msgRequired)
	}
	return verr.orNil()
}
