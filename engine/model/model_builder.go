package model

// ObjectBuilderOption is a functional option for configuring an Object via NewObject.
type ObjectBuilderOption func(*Object)

// WithName is an option builder that sets the name of the Object.
//
// Parameters:
//   - name: the object name
//
// Returns:
//   - ObjectBuilderOption: a function that applies the name option to an object
func WithName(name string) ObjectBuilderOption {
	return func(o *Object) {
		o.Name = name
	}
}

// WithUUID is an option builder that keeps an identifier read from the source file.
// Empty identifiers are ignored so the generated UUID survives.
//
// Parameters:
//   - id: the object identifier
//
// Returns:
//   - ObjectBuilderOption: a function that applies the UUID option to an object
func WithUUID(id string) ObjectBuilderOption {
	return func(o *Object) {
		if id != "" {
			o.UUID = id
		}
	}
}

// WithGeometry is an option builder that sets the geometry of the Object.
//
// Parameters:
//   - geometry: the vertex data
//
// Returns:
//   - ObjectBuilderOption: a function that applies the geometry option to an object
func WithGeometry(geometry *Geometry) ObjectBuilderOption {
	return func(o *Object) {
		o.Geometry = geometry
	}
}

// WithMaterial is an option builder that sets the material of the Object.
//
// Parameters:
//   - material: the surface material
//
// Returns:
//   - ObjectBuilderOption: a function that applies the material option to an object
func WithMaterial(material *Material) ObjectBuilderOption {
	return func(o *Object) {
		o.Material = material
	}
}

// WithMatrix is an option builder that sets the local transform of the Object.
//
// Parameters:
//   - matrix: the column-major 4x4 transform
//
// Returns:
//   - ObjectBuilderOption: a function that applies the matrix option to an object
func WithMatrix(matrix [16]float32) ObjectBuilderOption {
	return func(o *Object) {
		o.Matrix = matrix
	}
}

// WithChildren is an option builder that appends children to the Object.
//
// Parameters:
//   - children: the child objects
//
// Returns:
//   - ObjectBuilderOption: a function that applies the children option to an object
func WithChildren(children ...*Object) ObjectBuilderOption {
	return func(o *Object) {
		o.Children = append(o.Children, children...)
	}
}

// WithUserData is an option builder that attaches format-specific values to the Object.
//
// Parameters:
//   - data: the values to keep
//
// Returns:
//   - ObjectBuilderOption: a function that applies the user data option to an object
func WithUserData(data map[string]any) ObjectBuilderOption {
	return func(o *Object) {
		o.UserData = data
	}
}
