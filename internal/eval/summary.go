package eval

// Summary aggregates results. The ratio methods return 0 when their
// denominator is 0.
type Summary struct {
	Samples               int `json:"samples"`
	Valid                 int `json:"valid"`
	Invalid               int `json:"invalid"`
	SyntaxErrors          int `json:"syntax_errors"`
	ArgumentParsingErrors int `json:"argument_parsing_errors"`

	Calls            int `json:"calls"`
	Hallucinated     int `json:"hallucinated_calls"`
	InvalidArguments int `json:"invalid_arguments"`

	// WithExpected counts cases carrying a reference query; Matched those
	// whose parsed tree equals it.
	WithExpected int `json:"with_expected"`
	Matched      int `json:"matched"`
}

// Add folds one result into the summary.
func (s *Summary) Add(r Result) {
	s.Samples++
	switch r.Outcome {
	case OutcomeValid:
		s.Valid++
	case OutcomeInvalid:
		s.Invalid++
	case OutcomeSyntaxError:
		s.SyntaxErrors++
	case OutcomeArgumentParsingError:
		s.ArgumentParsingErrors++
	}
	s.Calls += r.Calls
	s.Hallucinated += r.Hallucinated
	s.InvalidArguments += r.InvalidArguments
	if r.HasExpected {
		s.WithExpected++
		if r.Matched {
			s.Matched++
		}
	}
}

// SyntaxErrorRatio is syntax errors over samples.
func (s Summary) SyntaxErrorRatio() float64 { return ratio(s.SyntaxErrors, s.Samples) }

// ArgumentParsingErrorRatio is argument parsing errors over samples.
func (s Summary) ArgumentParsingErrorRatio() float64 {
	return ratio(s.ArgumentParsingErrors, s.Samples)
}

// HallucinationRatio is hallucinated calls over all calls in parsed samples.
func (s Summary) HallucinationRatio() float64 { return ratio(s.Hallucinated, s.Calls) }

// ValidRatio is fully valid samples over samples.
func (s Summary) ValidRatio() float64 { return ratio(s.Valid, s.Samples) }

// Accuracy is matched samples over samples with a reference query.
func (s Summary) Accuracy() float64 { return ratio(s.Matched, s.WithExpected) }

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
