package colours

import "github.com/fatih/color"

// Colour scheme for the CLI
var (
	Title     = color.New(color.FgCyan, color.Bold)
	Narration = color.New(color.FgWhite)
	Character = color.New(color.FgMagenta, color.Bold)
	Prompt    = color.New(color.FgGreen, color.Bold)
	Error     = color.New(color.FgRed, color.Bold)
	Success   = color.New(color.FgGreen)
	Info      = color.New(color.FgBlue)
	Warning   = color.New(color.FgYellow)
)
