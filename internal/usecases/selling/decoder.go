package selling

import (
	"fmt"
	"reflect"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/sales-tracker-api/internal/domain"
	"github.com/vfg2006/sales-tracker-api/pkg/apiErrors"
)

type jsonUnmarshaler interface {
	UnmarshalJSON([]byte) error
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var unmarshalerType = reflect.TypeOf((*jsonUnmarshaler)(nil)).Elem()

// DecodeInput aplica o documento JSON sobre in, campo a campo. Campos presentes
// sobrescrevem os atuais e objetos aninhados são mesclados. Um valor com tipo errado
// não interrompe a decodificação: o caminho volta como FieldError para ser reportado
// junto com as demais violações. Só JSON malformado resulta em erro.
func DecodeInput(payload []byte, in *domain.SaleInput) ([]FieldError, error) {
	var typeErrs []FieldError
	if !decodeObject(payload, reflect.ValueOf(in).Elem(), "", &typeErrs) {
		return nil, NewSaleError(ErrInvalidPayload, apiErrors.ErrInvalidFormat, "JSON inválido")
	}
	return typeErrs, nil
}

func decodeObject(data []byte, target reflect.Value, prefix string, typeErrs *[]FieldError) bool {
	var members map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return false
	}

	t := target.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}

		raw, ok := members[name]
		if !ok {
			continue
		}

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		field := target.Field(i)
		if sf.Type.Kind() == reflect.Struct && !reflect.PointerTo(sf.Type).Implements(unmarshalerType) {
			if !decodeObject(raw, field, path, typeErrs) {
				*typeErrs = append(*typeErrs, typeMismatch(path))
			}
			continue
		}

		if err := json.Unmarshal(raw, field.Addr().Interface()); err != nil {
			*typeErrs = append(*typeErrs, typeMismatch(path))
		}
	}

	return true
}

func typeMismatch(path string) FieldError {
	return FieldError{
		Field:   path,
		Message: fmt.Sprintf("%s com tipo ou formato inválido", label(path)),
	}
}
