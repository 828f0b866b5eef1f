// Package resources holds the localizable prompts and command tokens of the location dialogs.
package resources

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/spf13/viper"
)

// Strings is the table of every user-facing text. Templates use fmt verbs.
type Strings struct {
	CancelCommand string `mapstructure:"cancel_command"`
	HelpCommand   string `mapstructure:"help_command"`
	ResetCommand  string `mapstructure:"reset_command"`
	OtherCommand  string `mapstructure:"other_command"`
	YesTokens     string `mapstructure:"yes_tokens"` // comma separated
	NoTokens      string `mapstructure:"no_tokens"`  // comma separated

	CancelPrompt string `mapstructure:"cancel_prompt"`
	HelpMessage  string `mapstructure:"help_message"`
	ResetPrompt  string `mapstructure:"reset_prompt"`

	TitleSuffix       string `mapstructure:"title_suffix"`
	TitleSuffixNative string `mapstructure:"title_suffix_native"`

	LocationNotFound              string `mapstructure:"location_not_found"`
	SingleResultFound             string `mapstructure:"single_result_found"`
	MultipleResultsFound          string `mapstructure:"multiple_results_found"`
	ConfirmationInvalidResponse   string `mapstructure:"confirmation_invalid_response"`
	InvalidLocationResponse       string `mapstructure:"invalid_location_response"`
	InvalidLocationResponseNative string `mapstructure:"invalid_location_response_native"`

	AskForEmptyAddressTemplate string `mapstructure:"ask_for_empty_address_template"` // %s: field label
	AskForPrefix               string `mapstructure:"ask_for_prefix"`                 // %s: address so far
	AskForTemplate             string `mapstructure:"ask_for_template"`               // %s: field label
	AddressSeparator           string `mapstructure:"address_separator"`

	StreetAddress string `mapstructure:"street_address"`
	Locality      string `mapstructure:"locality"`
	Region        string `mapstructure:"region"`
	PostalCode    string `mapstructure:"postal_code"`
	Country       string `mapstructure:"country"`

	DirectionsSummary string `mapstructure:"directions_summary"` // %.1f: km, %s: duration
	SessionExpired    string `mapstructure:"session_expired"`
}

// Default returns the English table.
func Default() *Strings {
	return &Strings{
		CancelCommand: "cancel",
		HelpCommand:   "help",
		ResetCommand:  "reset",
		OtherCommand:  "other",
		YesTokens:     "yes,y,yep,yeah,sure,ok",
		NoTokens:      "no,n,nope,nah",

		CancelPrompt: "OK, cancelling the current operation.",
		HelpMessage: "Say or type a valid address when asked, and I will try to find it. " +
			"You can provide the full address (street, city, region, postal code, country) or a part of it. " +
			"Type 'reset' to start over, or 'cancel' to exit without providing an address.",
		ResetPrompt: "OK, let's start over.",

		TitleSuffix:       " Type or say an address.",
		TitleSuffixNative: " Tap 'Send Location' or type an address.",

		LocationNotFound:  "I could not find this address. Please try again.",
		SingleResultFound: "I found this result. Is this the correct address?",
		MultipleResultsFound: "I found these results. Type the number of the address you want, " +
			"or 'other' to enter it yourself.",
		ConfirmationInvalidResponse:   "Please type 'yes' or 'no'.",
		InvalidLocationResponse:       "Choose an address by its number, or type 'other' to enter a different one.",
		InvalidLocationResponseNative: "Please use the 'Send Location' button or type an address.",

		AskForEmptyAddressTemplate: "Please provide the %s.",
		AskForPrefix:               "OK, so far your address is %s. ",
		AskForTemplate:             "Please also provide the %s.",
		AddressSeparator:           ", ",

		StreetAddress: "street address",
		Locality:      "city or locality",
		Region:        "state or region",
		PostalCode:    "zip or postal code",
		Country:       "country",

		DirectionsSummary: "You are %.1f km away, and it will take %s to get to your location.",
		SessionExpired:    "Your previous session has expired. Let's start again.",
	}
}

// Load reads an override file (yaml, json or toml) and overlays its keys on the defaults.
// Keys with empty values keep the default. An empty path returns the defaults.
func Load(path string) (*Strings, error) {
	res := Default()
	if path == "" {
		return res, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read resource file %q: %w", path, err)
	}
	var override Strings
	if err := v.Unmarshal(&override); err != nil {
		return nil, fmt.Errorf("failed to decode resource file %q: %w", path, err)
	}
	overlay(res, &override)

	return res, nil
}

// overlay copies every non-empty field of src onto dst.
func overlay(dst, src *Strings) {
	d := reflect.ValueOf(dst).Elem()
	s := reflect.ValueOf(src).Elem()
	for i := range s.NumField() {
		if v := s.Field(i).String(); v != "" {
			d.Field(i).SetString(v)
		}
	}
}

// FieldLabel returns the human label of an address field.
func (s *Strings) FieldLabel(f models.AddressField) string {
	switch f {
	case models.FieldStreetAddress:
		return s.StreetAddress
	case models.FieldLocality:
		return s.Locality
	case models.FieldRegion:
		return s.Region
	case models.FieldPostalCode:
		return s.PostalCode
	case models.FieldCountry:
		return s.Country
	default:
		return ""
	}
}

// IsYes reports whether text is one of the affirmative tokens.
func (s *Strings) IsYes(text string) bool {
	return matchToken(s.YesTokens, text)
}

// IsNo reports whether text is one of the negative tokens.
func (s *Strings) IsNo(text string) bool {
	return matchToken(s.NoTokens, text)
}

// Is compares text with a command token, ignoring case and surrounding space.
func Is(text, token string) bool {
	token = strings.TrimSpace(token)
	return token != "" && strings.EqualFold(strings.TrimSpace(text), token)
}

func matchToken(list, text string) bool {
	for _, tok := range strings.Split(list, ",") {
		if Is(text, tok) {
			return true
		}
	}
	return false
}
