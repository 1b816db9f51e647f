package login

import (
	"errors"
	"fmt"
)

var ErrRedirectConfiguration = errors.New("login: no redirect configured")

const (
	EnvLocal      = "0"
	EnvProduction = "1"

	ActionBasic = "basic"
	ActionSave  = "save"
)

// Intent is what the browser asked for before being sent to the provider:
// which deployment to return to and what to do after login. Empty fields
// take the production/basic defaults.
type Intent struct {
	Env    string
	Action string
}

func (i Intent) withDefaults() Intent {
	if i.Env == "" {
		i.Env = EnvProduction
	}
	if i.Action == "" {
		i.Action = ActionBasic
	}
	return i
}

// Key is the redirect lookup key, env + "_" + action, after defaults.
func (i Intent) Key() string {
	i = i.withDefaults()
	return i.Env + "_" + i.Action
}

// Valid reports whether both fields are empty or recognized.
func (i Intent) Valid() bool {
	i = i.withDefaults()
	return (i.Env == EnvLocal || i.Env == EnvProduction) &&
		(i.Action == ActionBasic || i.Action == ActionSave)
}

// Redirects maps intent keys ("0_basic", "1_save", ...) to destination
// templates with four %s slots: user id, url-encoded name, access token,
// refresh token.
type Redirects map[string]string

// NewRedirects builds the fixed four-entry table.
func NewRedirects(basicLocal, basicProd, saveLocal, saveProd string) Redirects {
	return Redirects{
		EnvLocal + "_" + ActionBasic:      basicLocal,
		EnvProduction + "_" + ActionBasic: basicProd,
		EnvLocal + "_" + ActionSave:       saveLocal,
		EnvProduction + "_" + ActionSave:  saveProd,
	}
}

// Template returns the destination template for intent.
func (r Redirects) Template(intent Intent) (string, error) {
	key := intent.Key()
	tmpl, ok := r[key]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("%w: %q", ErrRedirectConfiguration, key)
	}
	if err := CheckTemplate(tmpl); err != nil {
		return "", fmt.Errorf("%q: %w", key, err)
	}
	return tmpl, nil
}

// TemplateSlots is the number of %s verbs a redirect template carries.
const TemplateSlots = 4

// CheckTemplate accepts only %s and %% verbs, with exactly TemplateSlots of
// the former. Percent-encoded sequences such as %2F must be written as %%2F.
func CheckTemplate(tmpl string) error {
	slots := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 < len(tmpl) {
			switch tmpl[i+1] {
			case 's':
				slots++
				i++
				continue
			case '%':
				i++
				continue
			}
		}
		return fmt.Errorf("%w: unsupported verb at offset %d", ErrRedirectConfiguration, i)
	}
	if slots != TemplateSlots {
		return fmt.Errorf("%w: want %d %%s slots, found %d", ErrRedirectConfiguration, TemplateSlots, slots)
	}
	return nil
}
