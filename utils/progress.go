package utils

import "math"

// ProgressPercent returns completed/total*100 rounded to two decimals, 0 when total is 0
func ProgressPercent(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}

// RoundTo2 rounds to two decimal places
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
