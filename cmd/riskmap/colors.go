package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"riskmap/internal/domain"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorMuted   = color.New(color.Faint).SprintFunc()
)

// formatSeverity renders high/medium/low counts. Zero counts stay plain.
func formatSeverity(s domain.Severity) string {
	tier := func(n int, paint func(a ...interface{}) string) string {
		if n == 0 {
			return "0"
		}
		return paint(strconv.Itoa(n))
	}
	return fmt.Sprintf("high=%s medium=%s low=%s",
		tier(s.High, colorError), tier(s.Medium, colorWarn), tier(s.Low, colorInfo))
}

func formatCount(n int, bad bool) string {
	s := strconv.Itoa(n)
	switch {
	case n == 0:
		return colorMuted(s)
	case bad:
		return colorError(s)
	default:
		return colorSuccess(s)
	}
}
