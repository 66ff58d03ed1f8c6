package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON number or a numeric string. Fractional numbers are
// truncated toward zero.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return fmt.Errorf("integer %s out of range", data)
	}
	*f = FlexInt(math.Trunc(v))
	return nil
}

// FlexFloat accepts a JSON number or a numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*f = FlexFloat(v)
	return nil
}

func intOr(v *FlexInt, def int) int {
	if v == nil {
		return def
	}
	return int(*v)
}

func floatOr(v *FlexFloat, def float64) float64 {
	if v == nil {
		return def
	}
	return float64(*v)
}

type PassageInput struct {
	TextContent string   `json:"text_content"`
	StartOffset *FlexInt `json:"start_offset"`
	EndOffset   *FlexInt `json:"end_offset"`
}

// AnnotationInput is the submission body. Scores are required; telemetry
// fields default to zero when absent.
type AnnotationInput struct {
	MentalEffortScore        *FlexInt `json:"mental_effort_score"`
	BackgroundKnowledgeScore *FlexInt `json:"background_knowledge_score"`
	EmotionalDrainScore      *FlexInt `json:"emotional_drain_score"`
	ClarityScore             *FlexInt `json:"clarity_score"`

	OptionalComments string `json:"optional_comments"`

	TimeSpentSeconds   *FlexFloat `json:"time_spent_seconds"`
	ActiveTimeSeconds  *FlexFloat `json:"active_time_seconds"`
	ScrollDepthPercent *FlexFloat `json:"scroll_depth_percent"`
	ScrollBackCount    *FlexInt   `json:"scroll_back_count"`
	PauseCount         *FlexInt   `json:"pause_count"`
	MouseActivityScore *FlexFloat `json:"mouse_activity_score"`

	DifficultPassages []PassageInput `json:"difficult_passages"`
}
