package profile

import (
	"fmt"

	"github.com/jonathan/apply-assistant/internal/types"
)

// InputKind is the editing affordance shown for a field in custom mode.
type InputKind string

// InputKind values
const (
	InputText      InputKind = "text"
	InputEmail     InputKind = "email"
	InputTel       InputKind = "tel"
	InputMultiline InputKind = "textarea"
	InputSelect    InputKind = "select"
)

// InputFor maps a field kind to its input. Unrecognized kinds get plain text.
func InputFor(kind types.FieldKind) InputKind {
	switch kind {
	case types.FieldKindEmail:
		return InputEmail
	case types.FieldKindTel:
		return InputTel
	case types.FieldKindTextarea:
		return InputMultiline
	case types.FieldKindSelect:
		return InputSelect
	default:
		return InputText
	}
}

// CheckOption validates a value for a select field. Other kinds accept anything.
// A select without options accepts anything as well.
func CheckOption(f types.Field, value string) error {
	if InputFor(f.Kind) != InputSelect || len(f.Options) == 0 || value == "" {
		return nil
	}
	for _, opt := range f.Options {
		if opt == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not an option for %q (choose one of %v)", ErrInvalidOption, value, f.Label, f.Options)
}

// QuickApply is the flattened view of a profile's quick-apply data.
type QuickApply struct {
	FirstName          string
	LastName           string
	PreferredFirstName string
	Phone              string
	PhoneCountry       string
	Location           string
	OnlineProfiles     map[string]string
}

const defaultPhoneCountry = "United States+1"

// QuickApplyOf extracts the quick-apply fields from prof.
// The top-level phone takes precedence over the quick-apply phone.
func QuickApplyOf(prof *types.Profile) QuickApply {
	qa := QuickApply{PhoneCountry: defaultPhoneCountry, OnlineProfiles: map[string]string{}}
	if prof == nil {
		return qa
	}
	data := prof.QuickApplyData

	qa.FirstName = stringOf(data, "first_name")
	qa.LastName = stringOf(data, "last_name")
	qa.PreferredFirstName = stringOf(data, "preferred_first_name")
	qa.Location = stringOf(data, "location")
	if pc := stringOf(data, "phone_country"); pc != "" {
		qa.PhoneCountry = pc
	}
	qa.Phone = prof.Phone
	if qa.Phone == "" {
		qa.Phone = stringOf(data, "phone")
	}
	if online, ok := data["online_profiles"].(map[string]any); ok {
		for k, v := range online {
			if s, ok := v.(string); ok && s != "" {
				qa.OnlineProfiles[k] = s
			}
		}
	}
	return qa
}

func stringOf(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
