package render

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ESC   = "\x1b"
	CSI   = ESC + "["
	Reset = CSI + "0m"
)

// MoveTo positions the cursor at row, col (1-based).
func MoveTo(row, col int) string {
	return fmt.Sprintf("%s%d;%dH", CSI, row, col)
}

// ClearScreen clears the entire screen.
func ClearScreen() string {
	return CSI + "2J"
}

// HideCursor hides the terminal cursor.
func HideCursor() string {
	return CSI + "?25l"
}

// ShowCursor shows the terminal cursor.
func ShowCursor() string {
	return CSI + "?25h"
}

// EnableAltScreen switches to the alternate screen buffer.
func EnableAltScreen() string {
	return CSI + "?1049h"
}

// DisableAltScreen switches back from the alternate screen buffer.
func DisableAltScreen() string {
	return CSI + "?1049l"
}

// EnterSession prepares a terminal for full-screen frames.
func EnterSession() string {
	return EnableAltScreen() + HideCursor() + ClearScreen()
}

// LeaveSession restores the terminal.
func LeaveSession() string {
	return Reset + ShowCursor() + DisableAltScreen()
}

// WriteCellSGR writes a single cell's full SGR + character to the builder.
// Uses combined SGR to avoid state leakage between cells.
func WriteCellSGR(sb *strings.Builder, c Cell) {
	if c.Bold {
		sb.WriteString("\x1b[0;1;38;2;")
	} else {
		sb.WriteString("\x1b[0;38;2;")
	}
	writeRGB(sb, c.Fg)
	sb.WriteString(";48;2;")
	writeRGB(sb, c.Bg)
	sb.WriteByte('m')
	sb.WriteRune(c.Ch)
}

func writeRGB(sb *strings.Builder, c RGB) {
	sb.WriteString(strconv.Itoa(int(c.R)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(c.G)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(c.B)))
}

// AnsiToRGB converts a basic ANSI color code to RGB. Background codes
// (40-47, 100-107) map to the same colors as their foregrounds.
func AnsiToRGB(code int) RGB {
	if (code >= 40 && code <= 47) || (code >= 100 && code <= 107) {
		code -= 10
	}
	switch code {
	case 30:
		return RGB{0, 0, 0}
	case 31:
		return RGB{170, 0, 0}
	case 32:
		return RGB{0, 170, 0}
	case 33:
		return RGB{170, 170, 0}
	case 34:
		return RGB{0, 0, 170}
	case 35:
		return RGB{170, 0, 170}
	case 36:
		return RGB{0, 170, 170}
	case 37:
		return RGB{170, 170, 170}
	case 90:
		return RGB{85, 85, 85}
	case 91:
		return RGB{255, 85, 85}
	case 92:
		return RGB{85, 255, 85}
	case 93:
		return RGB{255, 255, 85}
	case 94:
		return RGB{85, 85, 255}
	case 95:
		return RGB{255, 85, 255}
	case 96:
		return RGB{85, 255, 255}
	case 97:
		return RGB{255, 255, 255}
	default:
		return RGB{170, 170, 170}
	}
}
