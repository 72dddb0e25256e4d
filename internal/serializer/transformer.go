package serializer

import (
	"context"
)

// DataTransformer turns an object into another class: a resource into its
// output DTO, or an input DTO into the resource.
type DataTransformer interface {
	SupportsTransformation(data interface{}, to string, sctx *Context) bool
	Transform(ctx context.Context, object interface{}, to string, sctx *Context) (interface{}, error)
}

// DataTransformerInitializer creates the input DTO before it is populated,
// typically from the object being updated
type DataTransformerInitializer interface {
	DataTransformer
	Initialize(ctx context.Context, inputClass string, sctx *Context) (interface{}, error)
}

// DataTransformerFunc adapts a function supporting a single target class
type DataTransformerFunc struct {
	To   string
	Func func(ctx context.Context, object interface{}, sctx *Context) (interface{}, error)
}

func (f DataTransformerFunc) SupportsTransformation(_ interface{}, to string, _ *Context) bool {
	return f.To == to
}

func (f DataTransformerFunc) Transform(ctx context.Context, object interface{}, _ string, sctx *Context) (interface{}, error) {
	return f.Func(ctx, object, sctx)
}
