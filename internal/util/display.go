package util

// Terminal control sequences
const (
	ClearScreen    = "\033[2J" // Clear entire screen
	MoveCursorHome = "\033[H"  // Move cursor to home position
)
