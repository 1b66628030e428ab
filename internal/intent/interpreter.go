package intent

import (
	"sort"
)

// ParsedRequest is the structured form of one natural-language request.
// Built once per Interpret call and never mutated afterwards; the Intent
// field is never empty; failure to classify is the Unknown sentinel.
type ParsedRequest struct {
	RawText    string
	Intent     string
	Confidence float64
	Params     map[string]string
	OSTarget   OSTarget
}

// Interpreter composes the classifier and the extractor into one call.
type Interpreter struct {
	catalog    *Catalog
	classifier *Classifier
}

// NewInterpreter builds an interpreter over catalog. minConfidence <= 0
// selects the default classification threshold.
func NewInterpreter(catalog *Catalog, minConfidence float64) *Interpreter {
	return &Interpreter{
		catalog:    catalog,
		classifier: NewClassifier(catalog, minConfidence),
	}
}

// Catalog returns the catalog this interpreter classifies against.
func (in *Interpreter) Catalog() *Catalog {
	return in.catalog
}

// Interpret classifies rawText, extracts the matched intent's parameters,
// and detects the OS target. OS detection runs regardless of classification
// since the target system is orthogonal to what the request asks for.
// Each call is independent; identical input yields an identical result.
func (in *Interpreter) Interpret(rawText string) ParsedRequest {
	cls := in.classifier.Classify(rawText)

	params := map[string]string{}
	if cls.Intent != Unknown {
		if def, ok := in.catalog.Lookup(cls.Intent); ok {
			params = Extract(rawText, def)
		}
	}

	return ParsedRequest{
		RawText:    rawText,
		Intent:     cls.Intent,
		Confidence: cls.Confidence,
		Params:     params,
		OSTarget:   DetectOS(rawText),
	}
}

// MissingRequiredParams returns the sorted names of required parameters the
// request is still missing, so the interactive layer knows what to ask for.
// Unknown intents have no declared parameters and return nil.
func (in *Interpreter) MissingRequiredParams(parsed ParsedRequest) []string {
	def, ok := in.catalog.Lookup(parsed.Intent)
	if !ok {
		return nil
	}

	var missing []string
	for _, name := range def.RequiredParams {
		if v, set := parsed.Params[name]; !set || v == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
