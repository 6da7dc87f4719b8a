// Package validation checks job payloads against JSON schemas.
package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line, for job failure details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// creditReportSchema only enforces shape. Missing or odd values inside a well-formed report are
// absorbed by the analysis as neutral defaults.
const creditReportSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["accounts"],
	"properties": {
		"clientId":   {"type": "string"},
		"name":       {"type": "string"},
		"pan":        {"type": "string"},
		"reportDate": {"type": "string"},
		"accounts": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"accountNumber":      {"type": "string"},
					"type":               {"type": "string"},
					"lender":             {"type": "string"},
					"openedDate":         {"type": "string"},
					"closedDate":         {"type": "string"},
					"lastReportedDate":   {"type": "string"},
					"currentBalance":     {"type": "number"},
					"creditLimit":        {"type": "number"},
					"sanctionedAmount":   {"type": "number"},
					"overdueAmount":      {"type": "number"},
					"emiAmount":          {"type": "number"},
					"facilityStatusCode": {"type": "string"},
					"paymentHistory":     {"type": "string"},
					"paymentStatusHistory": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"date":   {"type": "string"},
								"status": {"type": "string"}
							}
						}
					}
				}
			}
		},
		"enquiries": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"date":   {"type": "string"},
					"lender": {"type": "string"},
					"amount": {"type": "number"}
				}
			}
		},
		"employment": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"occupationCode": {"type": "string"},
					"employerName":   {"type": "string"},
					"monthlyIncome":  {"type": "number"}
				}
			}
		}
	}
}`

var (
	reportSchemaOnce sync.Once
	reportSchema     *gojsonschema.Schema
	reportSchemaErr  error
)

// ValidateCreditReport validates a decoded JSON document (map, slice or primitive) as a credit report.
func ValidateCreditReport(doc interface{}) (*ValidationResult, error) {
	reportSchemaOnce.Do(func() {
		reportSchema, reportSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(creditReportSchema))
	})
	if reportSchemaErr != nil {
		return nil, fmt.Errorf("compile credit report schema: %w", reportSchemaErr)
	}
	return validate(reportSchema, doc)
}

// ValidateAgainst validates doc against an ad hoc schema document.
func ValidateAgainst(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return validate(compiled, doc)
}

func validate(schema *gojsonschema.Schema, doc interface{}) (*ValidationResult, error) {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool {
		if out.Errors[i].Field != out.Errors[j].Field {
			return out.Errors[i].Field < out.Errors[j].Field
		}
		return out.Errors[i].Code < out.Errors[j].Code
	})
	return out, nil
}
