package asset

import (
	_ "embed"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// DecodeError reports a source that failed structural validation.
//
// Decoding is fail-fast: the first schema violation aborts and no partial
// Asset is produced. The caller (config agent) wraps this in its own load
// error; downstream agents never observe an invalid asset.
type DecodeError struct {
	// Source names the asset source (file path or identifier).
	Source string

	// Message is the validator's description of the violation, including
	// file positions when the CUE evaluator provides them.
	Message string

	// Err is the underlying validator error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("asset %s: %s", e.Source, e.Message)
}

// Unwrap returns the underlying validator error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is (or wraps) a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Decode validates raw JSON against the embedded schema and returns the
// typed asset. The source name is used only for error reporting.
//
// The schema is compiled per call; sources are small and decoding happens
// once per agent start, so a shared context is not worth the coupling.
func Decode(source string, raw []byte) (*Asset, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema ships inside the binary; failing to compile it is a
		// build defect, not a caller error.
		return nil, &DecodeError{Source: source, Message: "internal schema is invalid", Err: err}
	}

	def := schema.LookupPath(cue.ParsePath("#Asset"))
	if !def.Exists() {
		return nil, &DecodeError{Source: source, Message: "internal schema is missing #Asset"}
	}

	expr, err := cuejson.Extract(source, raw)
	if err != nil {
		return nil, &DecodeError{Source: source, Message: formatCUEError(err), Err: err}
	}

	data := ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return nil, &DecodeError{Source: source, Message: formatCUEError(err), Err: err}
	}

	unified := def.Unify(data)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, &DecodeError{Source: source, Message: formatCUEError(err), Err: err}
	}

	var a Asset
	if err := unified.Decode(&a); err != nil {
		return nil, &DecodeError{Source: source, Message: formatCUEError(err), Err: err}
	}

	return &a, nil
}

// formatCUEError flattens a CUE error list into a single message with
// positions. CUE errors can carry multiple positions and nested details;
// the first error is the one worth surfacing fail-fast.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}

	first := errs[0]
	msg := first.Error()
	if pos := first.Position(); pos.IsValid() {
		msg = fmt.Sprintf("%s: %s", pos, msg)
	}
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(errs)-1)
	}
	return msg
}
