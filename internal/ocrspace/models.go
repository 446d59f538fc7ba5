package ocrspace

import (
	"encoding/json"
	"strings"
)

// ParseResponse is the OCR.space /parse/image response body
type ParseResponse struct {
	ParsedResults         []ParsedResult `json:"ParsedResults"`
	OCRExitCode           int            `json:"OCRExitCode"`
	IsErroredOnProcessing bool           `json:"IsErroredOnProcessing"`
	ErrorMessage          FlexibleString `json:"ErrorMessage,omitempty"`
	ErrorDetails          string         `json:"ErrorDetails,omitempty"`
	ProcessingTimeMS      string         `json:"ProcessingTimeInMilliseconds,omitempty"`
}

// ParsedResult is one recognized page
type ParsedResult struct {
	ParsedText        string         `json:"ParsedText"`
	FileParseExitCode int            `json:"FileParseExitCode"`
	ErrorMessage      FlexibleString `json:"ErrorMessage,omitempty"`
}

// FlexibleString absorbs fields OCR.space returns either as a string
// or as an array of strings.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = FlexibleString(single)
		return nil
	}

	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return err
	}
	*f = FlexibleString(strings.Join(multi, "; "))
	return nil
}

func (f FlexibleString) String() string {
	return string(f)
}
