package message

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"aleph.im/sdk/itemhash"
)

var payloadValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Item hashes validate as their textual form; the zero hash is "".
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		h, ok := f.Interface().(itemhash.ItemHash)
		if !ok {
			return nil
		}
		return h.String()
	}, itemhash.ItemHash{})
	return v
}

type checker interface {
	check() error
}

// validatePayload applies the struct rules of p and then its cross-field
// checks. The returned rule ID tells which of the two failed.
func validatePayload(p Payload) (string, error) {
	if err := payloadValidator.Struct(p); err != nil {
		return RuleContentRules, describeValidation(err)
	}
	if c, ok := p.(checker); ok {
		if err := c.check(); err != nil {
			return RuleContentSemantics, err
		}
	}
	return "", nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

// presentHash rejects an optional item hash that was given as "".
func presentHash(field string, h *itemhash.ItemHash) error {
	if h != nil && h.IsZero() {
		return fmt.Errorf("%s: empty item hash", field)
	}
	return nil
}

func hashList(field string, hs []itemhash.ItemHash) error {
	for i, h := range hs {
		if h.IsZero() {
			return fmt.Errorf("%s[%d]: empty item hash", field, i)
		}
	}
	return nil
}
