package codec

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// DecodePayload unmarshals raw into dst and validates it against its struct
// tags, returning a *CodecError with the CALLERROR code the violated tag
// maps to (§4.2).
func DecodePayload(raw json.RawMessage, dst interface{}) *CodecError {
	if err := json.Unmarshal(raw, dst); err != nil {
		return newCodecError(ErrFormationViolation, "payload is not valid JSON: %v", err)
	}
	if err := getValidator().Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return newCodecError(codeForTag(verrs[0].Tag()), "field %q failed validation %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return newCodecError(ErrGenericError, "validation error: %v", err)
	}
	return nil
}

// codeForTag maps a validator tag to the CALLERROR code table of §4.2.
func codeForTag(tag string) ErrorCode {
	switch tag {
	case "required":
		return ErrOccurrenceConstraintViolation
	case "oneof":
		return ErrPropertyConstraintViolation
	case "min", "max", "len":
		return ErrPropertyConstraintViolation
	case "rfc3339", "url":
		return ErrTypeConstraintViolation
	default:
		return ErrGenericError
	}
}
