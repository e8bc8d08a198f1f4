package nutrition

import (
	"fmt"
	"math"
)

// Analysis is the quick nutrition check returned by the analyze endpoint.
type Analysis struct {
	Targets
	BMI             string   `json:"bmi"`
	BMICategory     string   `json:"bmiCategory"`
	MetabolicAge    int      `json:"metabolicAge"`
	Recommendations []string `json:"recommendations"`
}

// BMI returns weight / height(m)^2. Height is in centimetres.
func BMI(weight, height float64) float64 {
	if height <= 0 {
		return 0
	}
	m := height / 100
	return weight / (m * m)
}

// BMICategory buckets a BMI value using the WHO adult cut-offs.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal Weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// Analyze combines the calculated targets with a BMI reading.
func Analyze(age int, weight, height float64, activityLevel, goal string) Analysis {
	bmi := BMI(weight, height)
	rounded := math.Round(bmi*10) / 10

	return Analysis{
		Targets:         CalculateTargets(age, weight, height, activityLevel, goal),
		BMI:             fmt.Sprintf("%.1f", rounded),
		BMICategory:     BMICategory(rounded),
		MetabolicAge:    age,
		Recommendations: []string{},
	}
}
