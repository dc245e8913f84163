package web

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/schema"
)

// ------------------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------------------

// Validator holds a map of validation errors, keyed by the form field name.
type Validator struct {
	Errors map[string]string `json:"errors"`
}

// NewValidator creates a new, initialized Validator.
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map is empty.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error message to the map for a given field if one
// doesn't already exist for that field.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check is a helper for conditional validation. If `ok` is false, it
// calls AddError with the provided key and message.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// ------------------------------------------------------------------------------
// Forms
// ------------------------------------------------------------------------------

// FilterForm represents the URL query parameters narrowing every analytical
// endpoint: repeated channel parameters, an optional salesperson and an
// optional date range over the sale date.
type FilterForm struct {
	Channels    []string  `schema:"channel"`
	Salesperson string    `schema:"salesperson"`
	DateFrom    time.Time `schema:"date-from"`
	DateTo      time.Time `schema:"date-to"`
}

// Validate checks FilterForm fields and populates Validator with any errors.
func (f *FilterForm) Validate(v *Validator) {
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() {
		v.Check(!f.DateTo.Before(f.DateFrom), "date-to", "End date cannot be before the start date.")
	}
}

// CrossSellForm carries the anchor product for the cross-sell endpoint on
// top of the shared filter parameters.
type CrossSellForm struct {
	FilterForm
	Product string `schema:"product"`
}

// Validate checks CrossSellForm fields.
func (f *CrossSellForm) Validate(v *Validator) {
	f.FilterForm.Validate(v)
	v.Check(f.Product != "", "product", "An anchor product must be provided.")
}

// AuditForm carries the hierarchy/category/product multi-selects for the
// audit pivot on top of the shared filter parameters.
type AuditForm struct {
	FilterForm
	Hierarchies []string `schema:"hierarchy1"`
	Categories  []string `schema:"category"`
	Products    []string `schema:"product"`
}

// RejectedForm represents the rejected-delivery narrowing: the feed carries
// its own distributor and zone dimensions and its own date field.
type RejectedForm struct {
	Salesperson string    `schema:"salesperson"`
	Distributor string    `schema:"distributor"`
	Zone        string    `schema:"zone"`
	DateFrom    time.Time `schema:"date-from"`
	DateTo      time.Time `schema:"date-to"`
}

// Validate checks RejectedForm fields.
func (f *RejectedForm) Validate(v *Validator) {
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() {
		v.Check(!f.DateTo.Before(f.DateFrom), "date-to", "End date cannot be before the start date.")
	}
}

// RouteForm narrows the route endpoints to one visit day.
type RouteForm struct {
	FilterForm
	VisitDay string `schema:"visit-day"`
}

// SettingsForm carries the per-session settings overrides.
type SettingsForm struct {
	MonthlyTarget float64 `schema:"monthly-target"`
}

// Validate checks SettingsForm fields.
func (f *SettingsForm) Validate(v *Validator) {
	v.Check(f.MonthlyTarget >= 0, "monthly-target", "The monthly target may not be negative.")
}

// ------------------------------------------------------------------------------
// General decoding funcs
// ------------------------------------------------------------------------------

// newSchemaDecoder creates a new schema.Decoder instance and registers
// a custom converter for the time.Time type.
func newSchemaDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	decoder.RegisterConverter(time.Time{}, func(value string) reflect.Value {
		t, err := time.Parse("2006-01-02", value) // other patterns can be tried here.
		if err != nil {
			return reflect.ValueOf(time.Time{})
		}
		return reflect.ValueOf(t)
	})

	return decoder
}

// DecodeURLParams is a helper that decodes URL query parameters from a
// request into a destination struct (dst).
func DecodeURLParams(r *http.Request, dst any) error {
	decoder := newSchemaDecoder()
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("url parameter decoding error: %v", err)
	}
	return nil
}

// DecodePostForm decodes POST form values into a destination struct.
func DecodePostForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid POST request: %v", err)
	}
	decoder := newSchemaDecoder()
	if err := decoder.Decode(dst, r.PostForm); err != nil {
		return fmt.Errorf("post data decoding error: %v", err)
	}
	return nil
}
