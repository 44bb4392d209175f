package github

import (
	"bytes"
	"encoding/json"
	"maps"
)

// UserProfile is the normalized GitHub user. Fields GitHub returns beyond
// the typed ones are kept in Extra and written back by MarshalJSON.
type UserProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	HTMLURL   string `json:"html_url,omitempty"`

	Extra map[string]any `json:"-"`
}

var typedProfileKeys = []string{"id", "login", "name", "email", "avatar_url", "html_url"}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var all map[string]any
	if err := dec.Decode(&all); err != nil {
		return err
	}
	for _, key := range typedProfileKeys {
		delete(all, key)
	}

	*p = UserProfile(typed)
	p.Extra = nil
	if len(all) > 0 {
		p.Extra = all
	}
	return nil
}

func (p UserProfile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+len(typedProfileKeys))
	maps.Copy(out, p.Extra)

	out["id"] = p.ID
	out["login"] = p.Login
	for key, value := range map[string]string{
		"name":       p.Name,
		"email":      p.Email,
		"avatar_url": p.AvatarURL,
		"html_url":   p.HTMLURL,
	} {
		if value != "" {
			out[key] = value
		} else {
			delete(out, key)
		}
	}

	return json.Marshal(out)
}

// Email is one entry of the /user/emails listing
type Email struct {
	Email      string `json:"email"`
	Primary    bool   `json:"primary"`
	Verified   bool   `json:"verified"`
	Visibility string `json:"visibility,omitempty"`
}

// tokenResponse is the token endpoint schema. Error is a pointer so a
// present but empty error field still counts as an error.
type tokenResponse struct {
	AccessToken      string  `json:"access_token"`
	TokenType        string  `json:"token_type"`
	Scope            string  `json:"scope"`
	Error            *string `json:"error"`
	ErrorDescription string  `json:"error_description"`
}
