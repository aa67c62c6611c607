package handler

import (
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"uptask/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const msgInvalidBody = "Datos no válidos"

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("maxbytes", maxBytes)
	}
}

// maxBytes limits the encoded length of a string. bcrypt refuses passwords
// over 72 bytes, which `max` cannot express for multi-byte input.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

// bindJSON decodes and validates the request body into req. On failure it
// answers 400 with one entry per invalid field and returns false.
//
// Field messages come from the `msg` struct tag, or `msg_<rule>` when one rule
// needs its own wording. Field names come from the `json` tag.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		// an empty body still reports which fields are missing
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apperr.RespondFields(c, apperr.FieldError{Field: "body", Msg: msgInvalidBody})
		return false
	}

	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldError(t, fe))
	}
	apperr.RespondFields(c, fields...)
	return false
}

func fieldError(t reflect.Type, fe validator.FieldError) apperr.FieldError {
	sf, ok := t.FieldByName(fe.StructField())
	if !ok {
		return apperr.FieldError{Field: fe.Field(), Msg: msgInvalidBody}
	}
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" {
		name = sf.Name
	}
	msg := sf.Tag.Get("msg_" + fe.Tag())
	if msg == "" {
		msg = sf.Tag.Get("msg")
	}
	if msg == "" {
		msg = msgInvalidBody
	}
	return apperr.FieldError{Field: name, Msg: msg}
}

// validateVar checks a single value against validator tags.
func validateVar(value any, tag string) bool {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return false
	}
	return v.Var(value, tag) == nil
}
