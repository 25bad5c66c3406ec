// Package schema validates raw input documents against the scoring contract
// and decodes them into model.Document.
//
// Validation runs a JSON syntax check (ErrMalformed), then a CUE unification
// against the embedded #Document definition (ErrSchema with field paths),
// then a typed decode with the few checks CUE does not express. Integral
// numbers written as 100.0 are accepted wherever an integer is expected.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/okian/clipscore/internal/domain/model"
)

//go:embed video.cue
var videoSchema []byte

const documentDef = "#Document"

// compiled is a CUE context with the document definition loaded. CUE values
// are not safe for concurrent use, so each goroutine borrows its own.
type compiled struct {
	ctx *cue.Context
	def cue.Value
}

func compile() (*compiled, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(videoSchema, cue.Filename("video.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath(documentDef))
	if !def.Exists() {
		return nil, fmt.Errorf("schema definition %s not found", documentDef)
	}
	return &compiled{ctx: ctx, def: def}, nil
}

// Parser validates and decodes input documents. It is safe for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser compiles the embedded schema once to fail fast on a broken
// definition, then keeps compiled copies in a pool.
func NewParser() (*Parser, error) {
	first, err := compile()
	if err != nil {
		return nil, err
	}
	p := &Parser{}
	p.pool.New = func() any {
		c, err := compile()
		if err != nil {
			// The schema compiled once already; a later failure cannot
			// happen short of memory corruption.
			panic(err)
		}
		return c
	}
	p.pool.Put(first)
	return p, nil
}

var defaultParser = sync.OnceValues(NewParser)

// Parse validates data with a shared Parser.
func Parse(data []byte) (*model.Document, error) {
	p, err := defaultParser()
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// Parse checks data against the contract and decodes it. The returned error
// wraps ErrMalformed or ErrSchema.
func (p *Parser) Parse(data []byte) (*model.Document, error) {
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		if err == nil {
			err = errors.New("unexpected end of JSON input")
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	data, err := integralNumbers(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := p.validate(data); err != nil {
		return nil, err
	}

	var doc model.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, decodeError(err)
	}
	if err := checkSemantics(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (p *Parser) validate(data []byte) error {
	c, _ := p.pool.Get().(*compiled)
	defer p.pool.Put(c)

	expr, err := cuejson.Extract("input.json", data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	val := c.ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := c.def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Fields: fieldErrors(err)}
	}
	return nil
}

// fieldErrors flattens a CUE error list into sorted, de-duplicated field
// errors.
func fieldErrors(err error) []FieldError {
	seen := make(map[FieldError]struct{})
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		fe := FieldError{
			Path:    fieldPath(e.Path()),
			Message: fmt.Sprintf(format, args...),
		}
		if _, dup := seen[fe]; dup {
			continue
		}
		seen[fe] = struct{}{}
		out = append(out, fe)
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// fieldPath joins a CUE error path into the document's dotted form. Paths
// reported from inside the definition start with its name, which is not part
// of the document.
func fieldPath(elems []string) string {
	for len(elems) > 0 && strings.HasPrefix(elems[0], "#") {
		elems = elems[1:]
	}
	return strings.Join(elems, ".")
}

// integralNumbers rewrites integral numbers spelled with a fraction or an
// exponent (100.0, 1e3) in plain integer form, so count fields accept them.
// Anything else is left for validation to judge.
func integralNumbers(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var changed bool
	v = rewriteIntegral(v, &changed)
	if !changed {
		return data, nil
	}
	return json.Marshal(v)
}

func rewriteIntegral(v any, changed *bool) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = rewriteIntegral(e, changed)
		}
	case []any:
		for i, e := range t {
			t[i] = rewriteIntegral(e, changed)
		}
	case json.Number:
		if !strings.ContainsAny(string(t), ".eE") {
			return t
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
			return t
		}
		*changed = true
		if f == 0 {
			return json.Number("0")
		}
		return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return v
}

// decodeError maps a typed-decode failure that slipped past CUE (numbers out
// of the Go type's range) to a field error.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Fields: []FieldError{{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("cannot hold value %s as %s", typeErr.Value, typeErr.Type),
		}}}
	}
	return &ValidationError{Fields: []FieldError{{Message: err.Error()}}}
}

func checkSemantics(doc *model.Document) error {
	if _, err := time.Parse(time.RFC3339, doc.Meta.PostTimeISO); err != nil {
		return &ValidationError{Fields: []FieldError{{
			Path:    "meta.post_time_iso",
			Message: "must be an RFC 3339 timestamp",
		}}}
	}
	return nil
}
