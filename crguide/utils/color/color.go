// crguide/utils/color/color.go
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	infoColor      = color.New(color.FgGreen)
	errorColor     = color.New(color.FgRed, color.Bold)
	assistantColor = color.New(color.FgHiYellow, color.Bold)
	userColor      = color.New(color.FgHiBlue)
	timeColor      = color.New(color.FgHiBlack)
)

func ColorPrompt(s string) string {
	return promptColor.Sprint(s)
}

func ColorInfo(s string) string {
	return infoColor.Sprint(s)
}

func ColorError(s string) string {
	return errorColor.Sprint(s)
}

func ColorTime(s string) string {
	return timeColor.Sprint(s)
}

// ColorRole colours a speaker label the way the chat page does: assistant on the left, user on the right.
func ColorRole(role, s string) string {
	if role == "user" {
		return userColor.Sprint(s)
	}
	return assistantColor.Sprint(s)
}

// Disable turns colouring off, e.g. when output is piped.
func Disable() {
	color.NoColor = true
}
