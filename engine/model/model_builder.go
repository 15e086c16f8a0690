package model

// ObjectBuilderOption is a functional option for configuring an Object via NewObject.
type ObjectBuilderOption func(*object)

// WithName is an option builder that sets the name of the Object.
//
// Parameters:
//   - name: the object identifier
//
// Returns:
//   - ObjectBuilderOption: a function that applies the name option to an object
func WithName(name string) ObjectBuilderOption {
	return func(o *object) {
		o.name = name
	}
}

// WithShape is an option builder that appends a shape to the Object.
//
// Parameters:
//   - mesh: the shape geometry
//   - materialIndex: index into the scene's material list
//
// Returns:
//   - ObjectBuilderOption: a function that applies the shape option to an object
func WithShape(mesh *Mesh, materialIndex int) ObjectBuilderOption {
	return func(o *object) {
		o.shapes = append(o.shapes, Shape{MaterialIndex: materialIndex, Mesh: mesh})
	}
}

// WithShapes is an option builder that appends several shapes to the Object.
func WithShapes(shapes ...Shape) ObjectBuilderOption {
	return func(o *object) {
		o.shapes = append(o.shapes, shapes...)
	}
}
