package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/duoview/internal/layout"
)

// summarizeLayout describes the panel sizes of l in one line.
func summarizeLayout(l layout.Layout) string {
	var parts []string
	for _, pr := range l.Panels() {
		parts = append(parts, fmt.Sprintf("%s %d×%d", pr.Panel, pr.Rect.Width(), pr.Rect.Height()))
	}
	if len(parts) == 0 {
		return "no visible panels"
	}
	return fmt.Sprintf("%s • scale ×%d", strings.Join(parts, " • "), l.ScalingRatio())
}

// renderASCIIPreview draws the output window as a width x height character
// canvas with both panels boxed and labelled.
func renderASCIIPreview(l layout.Layout, width, height int) []string {
	if l.WindowWidth <= 0 || l.WindowHeight <= 0 || width < 5 || height < 3 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	drawBorder(canvas, width, height)
	// Top first so a coinciding bottom panel wins, as on screen.
	for _, pr := range l.Panels() {
		label := "TOP"
		if pr.Panel == layout.PanelBottom {
			label = "BOTTOM"
		}
		drawPanel(canvas, pr.Rect, label, l.WindowWidth, l.WindowHeight)
	}

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

// drawPanel maps r from window pixels onto the canvas interior.
func drawPanel(canvas [][]rune, r layout.Rect, label string, winW, winH int) {
	canvasH := len(canvas)
	canvasW := len(canvas[0])
	innerW, innerH := canvasW-2, canvasH-2

	x1 := 1 + r.Left*innerW/winW
	y1 := 1 + r.Top*innerH/winH
	x2 := (r.Right*innerW + winW - 1) / winW
	y2 := (r.Bottom*innerH + winH - 1) / winH

	if x1 < 1 {
		x1 = 1
	}
	if y1 < 1 {
		y1 = 1
	}
	if x2 > canvasW-2 {
		x2 = canvasW - 2
	}
	if y2 > canvasH-2 {
		y2 = canvasH - 2
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			canvas[y][x] = ' '
		}
	}
	for x := x1; x <= x2; x++ {
		canvas[y1][x] = '─'
		canvas[y2][x] = '─'
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = '│'
		canvas[y][x2] = '│'
	}
	canvas[y1][x1] = '┌'
	canvas[y1][x2] = '┐'
	canvas[y2][x1] = '└'
	canvas[y2][x2] = '┘'

	centerY := (y1 + y2) / 2
	if centerY <= y1 || centerY >= y2 {
		return
	}
	if len(label) > x2-x1-1 {
		label = label[:1]
	}
	startX := (x1+x2)/2 - len(label)/2
	for i, ch := range label {
		if x := startX + i; x > x1 && x < x2 {
			canvas[centerY][x] = ch
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
