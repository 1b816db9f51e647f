package principal

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
	ProviderNaver  = "naver"
)

// google: OIDC claims, flat.
func extractGoogle(attrs map[string]any) (string, string, error) {
	return stringAttr(attrs, "sub"), stringAttr(attrs, "name"), nil
}

// kakao: numeric id at the top level, nickname under properties with
// kakao_account.profile as fallback.
func extractKakao(attrs map[string]any) (string, string, error) {
	id := stringAttr(attrs, "id")

	name := stringAttr(nested(attrs, "properties"), "nickname")
	if name == "" {
		profile := nested(nested(attrs, "kakao_account"), "profile")
		name = stringAttr(profile, "nickname")
	}
	return id, name, nil
}

// naver wraps the profile in a "response" object.
func extractNaver(attrs map[string]any) (string, string, error) {
	resp := nested(attrs, "response")
	if resp == nil {
		return "", "", fmt.Errorf("%w: response", ErrMissingAttribute)
	}
	return stringAttr(resp, "id"), stringAttr(resp, "name"), nil
}

func nested(attrs map[string]any, key string) map[string]any {
	if attrs == nil {
		return nil
	}
	m, _ := attrs[key].(map[string]any)
	return m
}

// stringAttr renders scalar attribute values as strings. Numeric ids are
// formatted in base 10 without exponent.
func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	switch v := attrs[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
