package resolvers

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"

	"github.com/99designs/gqlgen/graphql"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphql
var schemaSource string

// ExecutableSchema serves schema.graphql through gqlgen's handler. gqlgen
// parses and validates each operation; Exec walks the validated selection
// set one level at a time.
type ExecutableSchema struct {
	schema   *ast.Schema
	resolver *Resolver
}

var _ graphql.ExecutableSchema = (*ExecutableSchema)(nil)

// NewExecutableSchema creates the schema for resolver
func NewExecutableSchema(resolver *Resolver) *ExecutableSchema {
	return &ExecutableSchema{
		schema:   gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSource}),
		resolver: resolver,
	}
}

func (e *ExecutableSchema) Schema() *ast.Schema {
	return e.schema
}

// Complexity reports no custom costs; every field counts as one
func (e *ExecutableSchema) Complexity(ctx context.Context, typeName, field string, childComplexity int, args map[string]any) (int, bool) {
	return 0, false
}

func (e *ExecutableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	if opCtx.Operation == nil || opCtx.Operation.Operation != ast.Query {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "only queries are supported"))
	}

	x := &execution{opCtx: opCtx, resolver: e.resolver}
	root := x.selectAll(ctx, "Query", []any{nil}, []ast.Path{nil}, opCtx.Operation.SelectionSet)

	data, err := json.Marshal(root[0])
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("Failed to encode GraphQL response")
		return graphql.OneShot(graphql.ErrorResponse(ctx, "failed to encode response"))
	}
	return graphql.OneShot(&graphql.Response{Data: data, Errors: x.errs})
}

type execution struct {
	opCtx    *graphql.OperationContext
	resolver *Resolver
	errs     gqlerror.List
}

// selectAll resolves sel against every parent, one field at a time, so the
// loaders see every key of a level before the first batch is waited on
func (x *execution) selectAll(ctx context.Context, typeName string, parents []any, paths []ast.Path, sel ast.SelectionSet) []object {
	fields := graphql.CollectFields(x.opCtx, sel, []string{typeName})
	out := make([]object, len(parents))

	for _, f := range fields {
		args := f.ArgumentMap(x.opCtx.Variables)
		thunks := make([]thunk, len(parents))
		for i, parent := range parents {
			if f.Name == "__typename" {
				thunks[i] = value(typeName)
				continue
			}
			thunks[i] = x.resolver.resolve(ctx, typeName, f.Name, parent, args)
		}

		values := make([]any, len(parents))
		fieldPaths := make([]ast.Path, len(parents))
		for i, th := range thunks {
			fieldPaths[i] = extend(paths[i], ast.PathName(f.Alias))
			v, err := th()
			if err != nil {
				x.fail(ctx, fieldPaths[i], err)
				continue
			}
			values[i] = v
		}

		if len(f.Selections) > 0 {
			values = x.complete(ctx, f, values, fieldPaths)
		}
		for i := range out {
			out[i] = append(out[i], member{key: f.Alias, value: values[i]})
		}
	}
	return out
}

// complete resolves the sub-selection of object values, flattening lists so
// the whole next level is resolved in one pass
func (x *execution) complete(ctx context.Context, f graphql.CollectedField, values []any, paths []ast.Path) []any {
	var children []any
	var childPaths []ast.Path
	for i, v := range values {
		switch v := v.(type) {
		case nil:
		case []any:
			for j, item := range v {
				children = append(children, item)
				childPaths = append(childPaths, extend(paths[i], ast.PathIndex(j)))
			}
		default:
			children = append(children, v)
			childPaths = append(childPaths, paths[i])
		}
	}

	objects := x.selectAll(ctx, f.Definition.Type.Name(), children, childPaths, f.Selections)

	out := make([]any, len(values))
	next := 0
	for i, v := range values {
		switch v := v.(type) {
		case nil:
		case []any:
			list := make([]any, len(v))
			for j := range v {
				list[j] = objects[next]
				next++
			}
			out[i] = list
		default:
			out[i] = objects[next]
			next++
		}
	}
	return out
}

// fail records a field error; the field resolves to null. Only typed
// client errors reach the caller verbatim.
func (x *execution) fail(ctx context.Context, path ast.Path, err error) {
	gqlErr := &gqlerror.Error{Message: "internal server error", Path: path}

	appErr, ok := apperrors.As(err)
	if ok {
		gqlErr.Extensions = map[string]interface{}{"code": string(appErr.Type)}
	}
	switch {
	case ok && appErr.Type == apperrors.ErrorTypeExternal:
		gqlErr.Message = "upstream service unavailable"
	case ok && appErr.Type != apperrors.ErrorTypeInternal:
		gqlErr.Message = appErr.Message
	}
	if !ok || appErr.Type == apperrors.ErrorTypeInternal || appErr.Type == apperrors.ErrorTypeExternal {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("path", path.String()).Msg("GraphQL field failed")
	}

	x.errs = append(x.errs, gqlErr)
}

func extend(p ast.Path, el ast.PathElement) ast.Path {
	out := make(ast.Path, 0, len(p)+1)
	return append(append(out, p...), el)
}

// object keeps response keys in selection order
type object []member

type member struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
