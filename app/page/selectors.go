package page

import "time"

// Selectors of the Keycloak login page and of the application's logout control.
// Any field can be overridden from a yaml file, see config.LoadSelectors.
type Selectors struct {
	Form              string   `yaml:"form,omitempty" json:"form,omitempty" jsonschema:"description=login form container"`
	Username          string   `yaml:"username,omitempty" json:"username,omitempty" jsonschema:"description=username input"`
	Password          string   `yaml:"password,omitempty" json:"password,omitempty" jsonschema:"description=password input"`
	Submit            string   `yaml:"submit,omitempty" json:"submit,omitempty" jsonschema:"description=login button"`
	Title             string   `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"description=page heading"`
	Error             string   `yaml:"error,omitempty" json:"error,omitempty" jsonschema:"description=primary error message"`
	ErrorAlternatives []string `yaml:"error_alternatives,omitempty" json:"error_alternatives,omitempty" jsonschema:"description=fallback error message selectors checked in order"`
	SocialButtons     string   `yaml:"social_buttons,omitempty" json:"social_buttons,omitempty" jsonschema:"description=social provider buttons"`
	Logout            []string `yaml:"logout,omitempty" json:"logout,omitempty" jsonschema:"description=logout controls of the application checked in order"`
}

// DefaultSelectors match the stock Keycloak login theme
func DefaultSelectors() Selectors {
	return Selectors{
		Form:          "#kc-form-login",
		Username:      `input[name="username"]`,
		Password:      `input[name="password"]`,
		Submit:        "#kc-login",
		Title:         ".pf-c-title",
		Error:         "#input-error",
		SocialButtons: ".social-provider-button",
		ErrorAlternatives: []string{
			".alert-error",
			".error-message",
			`[role="alert"]`,
			".kc-feedback-text",
		},
		Logout: []string{
			`button:has-text("Logout")`,
			`button:has-text("Log out")`,
			`button:has-text("Sign out")`,
			`a:has-text("Logout")`,
			`a:has-text("Log out")`,
			`a:has-text("Sign out")`,
			`[data-testid="logout"]`,
			`[id*="logout"]`,
			`[class*="logout"]`,
			".logout-btn",
			"#logout",
			"#kc-logout",
			`a[href*="logout"]`,
		},
	}
}

// Merge returns s with every non-empty field of override applied
func (s Selectors) Merge(override Selectors) Selectors {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.Form, override.Form)
	set(&s.Username, override.Username)
	set(&s.Password, override.Password)
	set(&s.Submit, override.Submit)
	set(&s.Title, override.Title)
	set(&s.Error, override.Error)
	set(&s.SocialButtons, override.SocialButtons)
	if len(override.ErrorAlternatives) > 0 {
		s.ErrorAlternatives = append([]string(nil), override.ErrorAlternatives...)
	}
	if len(override.Logout) > 0 {
		s.Logout = append([]string(nil), override.Logout...)
	}
	return s
}

// Timeouts bound the waits of the page object
type Timeouts struct {
	Visible       time.Duration // element visibility checks
	Navigation    time.Duration // network idle after navigation
	ErrorProbe    time.Duration // primary error message
	ErrorFallback time.Duration // each alternative error selector
	Grace         time.Duration // pause before reading url in VerifySuccessfulLogin
}

// DefaultTimeouts for local runs
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Visible:       5 * time.Second,
		Navigation:    15 * time.Second,
		ErrorProbe:    2 * time.Second,
		ErrorFallback: 500 * time.Millisecond,
		Grace:         2 * time.Second,
	}
}
