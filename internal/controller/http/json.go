package http

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var errNotObject = errors.New("request body must be a JSON object")

func init() {
	binding.EnableDecoderUseNumber = true
}

// bindObject binds the request body as a JSON object, keeping integral numbers
// as int64 so that timestamps and counters are stored as integers rather than doubles.
func bindObject(ctx *gin.Context) (map[string]any, error) {
	var obj map[string]any
	if err := ctx.ShouldBindJSON(&obj); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.Is(err, io.EOF) || errors.As(err, &typeErr) {
			return nil, errNotObject
		}
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return normalizeNumbers(obj).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
