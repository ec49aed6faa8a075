package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/zudaR107/todo-app/internal/apperr"
	"github.com/zudaR107/todo-app/internal/ids"
)

const (
	tagJSON  = "json"
	tagQuery = "form"
	tagURI   = "uri"
)

var (
	errTrailingData = errors.New("request body must contain a single JSON object")

	hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

	registerOnce sync.Once
)

// RegisterValidators installs the custom binding rules on gin's validator.
// Every Bind* helper calls it, so calling it directly is only needed by code
// that validates outside of them.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", notBlank)
		_ = v.RegisterValidation("hexcolor3or6", hexColor)
		_ = v.RegisterValidation("objectid", objectID)
	})
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(f.String()) != ""
}

func hexColor(fl validator.FieldLevel) bool {
	return hexColorRe.MatchString(fl.Field().String())
}

func objectID(fl validator.FieldLevel) bool {
	return ids.Valid(fl.Field().String())
}

// BindJSON strictly decodes the body into out and validates it. An empty body
// decodes as {}. On failure the error is recorded on ctx and false returned.
func BindJSON(ctx *gin.Context, out any) bool {
	RegisterValidators()

	if err := decodeStrict(ctx.Request.Body, out); err != nil {
		_ = ctx.Error(bindError(err, out, tagJSON))
		return false
	}

	if err := binding.Validator.ValidateStruct(out); err != nil {
		_ = ctx.Error(bindError(err, out, tagJSON))
		return false
	}

	return true
}

func decodeStrict(body io.Reader, out any) error {
	if body == nil {
		return nil
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errTrailingData
	}

	return nil
}

// BindQuery binds the query string into out. Keys out does not declare are
// rejected.
func BindQuery(ctx *gin.Context, out any) bool {
	RegisterValidators()

	allowed := tagNames(baseStructType(out), tagQuery)
	for key := range ctx.Request.URL.Query() {
		if _, ok := allowed[key]; !ok {
			_ = ctx.Error(apperr.Validation(apperr.ValidationDetails{
				Fields: []apperr.FieldError{{Field: key, Rule: "unknown", Message: "is not allowed"}},
			}))
			return false
		}
	}

	if err := ctx.ShouldBindQuery(out); err != nil {
		_ = ctx.Error(bindError(err, out, tagQuery))
		return false
	}

	return true
}

// BindURI binds path parameters into out.
func BindURI(ctx *gin.Context, out any) bool {
	RegisterValidators()

	if err := ctx.ShouldBindUri(out); err != nil {
		_ = ctx.Error(bindError(err, out, tagURI))
		return false
	}

	return true
}

// IDParam is the path parameter of every /:id route.
type IDParam struct {
	ID string `uri:"id" binding:"required,objectid"`
}

func bindID(ctx *gin.Context) (string, bool) {
	var p IDParam
	if !BindURI(ctx, &p) {
		return "", false
	}
	return p.ID, true
}

func bindError(err error, out any, tagKey string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.New(http.StatusRequestEntityTooLarge, apperr.CodeTooLarge, "Request body too large").Wrap(err)
	}

	return apperr.Validation(parseBindError(err, out, tagKey)).Wrap(err)
}

func parseBindError(err error, out any, tagKey string) apperr.ValidationDetails {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]apperr.FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := pathFromValidatorError(rootType, fieldError, tagKey)
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, apperr.FieldError{
				Field:   field,
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return apperr.ValidationDetails{Fields: fields}
	}

	// in the event of bad json

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperr.ValidationDetails{JSON: "invalid_json_syntax"}
	}

	// in the event of a type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := pathFromDotPath(rootType, unmatchedTypeError.Field, tagKey)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		return apperr.ValidationDetails{
			JSON: "invalid_json_type",
			Fields: []apperr.FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	if name, ok := unknownField(err); ok {
		return apperr.ValidationDetails{
			Fields: []apperr.FieldError{{Field: name, Rule: "unknown", Message: "is not allowed"}},
		}
	}

	var timeError *time.ParseError
	if errors.As(err, &timeError) {
		return apperr.ValidationDetails{Form: []string{"timestamps must be RFC 3339 date-times"}}
	}

	var numError *strconv.NumError
	if errors.As(err, &numError) {
		return apperr.ValidationDetails{Form: []string{fmt.Sprintf("%q is not a valid number", numError.Num)}}
	}

	if errors.Is(err, errTrailingData) {
		return apperr.ValidationDetails{Form: []string{errTrailingData.Error()}}
	}

	// final fallback if the error could not be deciphered
	return apperr.ValidationDetails{Form: []string{"Invalid request"}}
}

// unknownField recognises the DisallowUnknownFields error, which encoding/json
// does not export as a type.
func unknownField(err error) (string, bool) {
	msg := err.Error()
	const prefix = "json: unknown field "
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	name, uerr := strconv.Unquote(strings.TrimPrefix(msg, prefix))
	if uerr != nil {
		return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
	}
	return name, true
}

func baseStructType(v any) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// tagNames lists the names a struct exposes under tagKey.
func tagNames(t reflect.Type, tagKey string) map[string]struct{} {
	out := make(map[string]struct{})
	if t == nil {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		out[tagNameFromStructField(sf, tagKey)] = struct{}{}
	}
	return out
}

func pathFromValidatorError(rootType reflect.Type, fieldError validator.FieldError, tagKey string) string {
	// Namespace format is usually "<StructName>.<Field>[.<NestedField>...]".
	namespace := fieldError.StructNamespace()
	if namespace == "" {
		namespace = fieldError.Namespace()
	}

	if namespace == "" {
		return fieldError.Field()
	}

	parts := strings.Split(namespace, ".")

	if rootType != nil && rootType.Name() != "" && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	path := mapStructPath(rootType, parts, tagKey)
	if path != "" {
		return path
	}

	return fieldError.Field()
}

func pathFromDotPath(rootType reflect.Type, dotPath, tagKey string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return mapStructPath(rootType, strings.Split(dotPath, "."), tagKey)
}

// mapStructPath rewrites Go field names into the names the client sent.
// Parts that are already wire names pass through unchanged.
func mapStructPath(rootType reflect.Type, parts []string, tagKey string) string {
	if len(parts) == 0 {
		return ""
	}

	current := rootType
	out := make([]string, 0, len(parts))

	for _, rawPart := range parts {
		if rawPart == "" {
			continue
		}

		fieldName, indexSuffix := splitFieldIndex(rawPart)
		name := fieldName

		nextType := reflect.Type(nil)
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(fieldName); ok {
					name = tagNameFromStructField(sf, tagKey)
					nextType = sf.Type
				}
			}
		}

		out = append(out, name+indexSuffix)

		if nextType != nil {
			current = unwindCollection(nextType)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

func splitFieldIndex(part string) (string, string) {
	idx := strings.Index(part, "[")
	if idx == -1 {
		return part, ""
	}

	return part[:idx], part[idx:]
}

func tagNameFromStructField(sf reflect.StructField, tagKey string) string {
	tag := sf.Tag.Get(tagKey)
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "notblank":
		return "must not be blank"
	case "objectid":
		return "must be a 24 character hex id"
	case "hexcolor3or6":
		return "must be a hex color like #abc or #aabbcc"
	case "datetime":
		return "must be an RFC 3339 date-time"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
