package logger

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ConsoleLogger provides enhanced console output for the pool demo CLI
type ConsoleLogger struct {
	*Logger
	width       int
	interactive bool
}

// NewConsoleLoggerInstance creates a logger optimized for console interaction
func NewConsoleLoggerInstance() *ConsoleLogger {
	logger := NewBasicConsoleLogger(InfoLevel)
	logger.EnableColor(true)
	logger.SetPrefix("pooldemo")

	return &ConsoleLogger{
		Logger:      logger,
		width:       80,
		interactive: isTerminal(os.Stdout),
	}
}

// SetWidth sets the console width for formatting
func (c *ConsoleLogger) SetWidth(width int) {
	c.width = width
}

// Banner prints a styled banner message
func (c *ConsoleLogger) Banner(msg string) {
	if !c.interactive {
		c.Info("=== %s ===", msg)
		return
	}

	fmt.Fprintf(c.output, "\n")
	c.printLine("=")
	fmt.Fprintf(c.output, "%s%s%s%s%s\n",
		ColorBold, ColorBlue, center(msg, c.width-4), ColorReset, ColorReset)
	c.printLine("=")
	fmt.Fprintf(c.output, "\n")
}

// Section prints a section header
func (c *ConsoleLogger) Section(title string) {
	if !c.interactive {
		c.Info("--- %s ---", title)
		return
	}

	fmt.Fprintf(c.output, "\n%s%s%s%s\n", ColorBold, ColorCyan, title, ColorReset)
	c.printLine("-")
}

// ConnectionEvent logs a connection open/reuse/mark-unhealthy event for a node
func (c *ConsoleLogger) ConnectionEvent(node string, handle uint64, status string) {
	var statusColor, statusSymbol string
	switch status {
	case "opened":
		statusColor, statusSymbol = ColorGreen, "✓"
	case "reused":
		statusColor, statusSymbol = ColorCyan, "↻"
	case "unhealthy":
		statusColor, statusSymbol = ColorYellow, "⚠"
	case "failed":
		statusColor, statusSymbol = ColorRed, "✗"
	default:
		statusColor, statusSymbol = ColorGray, "•"
	}

	if c.enableColor {
		fmt.Fprintf(c.output, "%s%s%s connection handle=%d node=%s %s\n",
			statusColor, statusSymbol, ColorReset, handle, node, status)
	} else {
		fmt.Fprintf(c.output, "[%s] connection handle=%d node=%s %s\n", statusSymbol, handle, node, status)
	}
}

// FailoverEvent logs a failover or topology-change reconciliation step
func (c *ConsoleLogger) FailoverEvent(step string, status string, message string) {
	var statusColor, statusSymbol string
	switch status {
	case "running":
		statusColor, statusSymbol = ColorYellow, "⟳"
	case "success":
		statusColor, statusSymbol = ColorGreen, "✓"
	case "failed":
		statusColor, statusSymbol = ColorRed, "✗"
	default:
		statusColor, statusSymbol = ColorGray, "•"
	}

	if c.enableColor {
		fmt.Fprintf(c.output, "%s%s%s %s: %s\n",
			statusColor, statusSymbol, ColorReset, step, message)
	} else {
		fmt.Fprintf(c.output, "[%s] %s: %s\n", statusSymbol, step, message)
	}
}

// ProgressBar displays a visual progress bar
func (c *ConsoleLogger) ProgressBar(current, total, width int) {
	if !c.interactive {
		percentage := float64(current) / float64(total) * 100
		c.Info("Progress: %.1f%% (%d/%d)", percentage, current, total)
		return
	}

	percentage := float64(current) / float64(total) * 100
	filledWidth := int(float64(width) * percentage / 100)

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", width-filledWidth)

	fmt.Fprintf(c.output, "  [%s%s%s] %.1f%%\n",
		ColorGreen, bar, ColorReset, percentage)
}

// CommandOutput formats and displays command output
func (c *ConsoleLogger) CommandOutput(output string, maxLines int) {
	if output == "" {
		return
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > maxLines {
		// Show first few and last few lines
		showFirst := maxLines / 2
		showLast := maxLines - showFirst - 1

		for i := 0; i < showFirst; i++ {
			c.printIndented(lines[i], 2)
		}

		c.printIndented(fmt.Sprintf("... (%d lines omitted) ...", len(lines)-maxLines+1), 2)

		for i := len(lines) - showLast; i < len(lines); i++ {
			c.printIndented(lines[i], 2)
		}
	} else {
		for _, line := range lines {
			c.printIndented(line, 2)
		}
	}
}

// ErrorBox prints an error in a formatted box
func (c *ConsoleLogger) ErrorBox(title string, message string, suggestions []string) {
	if !c.interactive {
		c.Error("%s: %s", title, message)
		for _, suggestion := range suggestions {
			c.Info("Suggestion: %s", suggestion)
		}
		return
	}

	boxWidth := c.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	fmt.Fprintf(c.output, "\n%s", ColorRed)
	c.printBoxLine("┌", "─", "┐", boxWidth)
	c.printBoxContent(fmt.Sprintf("ERROR: %s", title), boxWidth)
	c.printBoxLine("├", "─", "┤", boxWidth)
	c.printBoxContent(message, boxWidth)

	if len(suggestions) > 0 {
		c.printBoxLine("├", "─", "┤", boxWidth)
		c.printBoxContent("Suggestions:", boxWidth)
		for _, suggestion := range suggestions {
			c.printBoxContent(fmt.Sprintf("• %s", suggestion), boxWidth)
		}
	}

	c.printBoxLine("└", "─", "┘", boxWidth)
	fmt.Fprintf(c.output, "%s\n", ColorReset)
}

// SuccessBox prints a success message in a formatted box
func (c *ConsoleLogger) SuccessBox(title string, message string) {
	if !c.interactive {
		c.Info("SUCCESS: %s - %s", title, message)
		return
	}

	boxWidth := c.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	fmt.Fprintf(c.output, "\n%s", ColorGreen)
	c.printBoxLine("┌", "─", "┐", boxWidth)
	c.printBoxContent(fmt.Sprintf("✓ SUCCESS: %s", title), boxWidth)
	c.printBoxLine("├", "─", "┤", boxWidth)
	c.printBoxContent(message, boxWidth)
	c.printBoxLine("└", "─", "┘", boxWidth)
	fmt.Fprintf(c.output, "%s\n", ColorReset)
}

// Table prints data in a formatted table
func (c *ConsoleLogger) Table(headers []string, rows [][]string) {
	if !c.interactive || len(headers) == 0 {
		// Fallback to simple text output
		for _, row := range rows {
			c.Info("%s", strings.Join(row, " | "))
		}
		return
	}

	// Calculate column widths
	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = len(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	// Print table header
	fmt.Fprintf(c.output, "\n%s", ColorBold)
	c.printTableRow(headers, colWidths)
	fmt.Fprintf(c.output, "%s", ColorReset)

	// Print separator
	separator := make([]string, len(headers))
	for i, width := range colWidths {
		separator[i] = strings.Repeat("─", width)
	}
	c.printTableRow(separator, colWidths)

	// Print data rows
	for _, row := range rows {
		c.printTableRow(row, colWidths)
	}
	fmt.Fprintf(c.output, "\n")
}

// Pool-specific logging methods

// PoolOperation logs the start of a pool operation and returns a completion
// function that reports its duration.
func (c *ConsoleLogger) PoolOperation(operation string, node string) func() {
	start := time.Now()

	if c.enableColor {
		fmt.Fprintf(c.output, "%s⟳%s Starting %s on node %s...\n",
			ColorYellow, ColorReset, operation, node)
	} else {
		fmt.Fprintf(c.output, "[⟳] Starting %s on node %s...\n", operation, node)
	}

	return func() {
		duration := time.Since(start)
		if c.enableColor {
			fmt.Fprintf(c.output, "%s✓%s Completed %s in %s\n",
				ColorGreen, ColorReset, operation, duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(c.output, "[✓] Completed %s in %s\n", operation, duration.Round(time.Millisecond))
		}
	}
}

// PoolError logs a pool operation error with node context
func (c *ConsoleLogger) PoolError(operation string, node string, err error) {
	if c.enableColor {
		fmt.Fprintf(c.output, "%s✗%s %s failed on node %s: %s%s%s\n",
			ColorRed, ColorReset, operation, node, ColorRed, err.Error(), ColorReset)
	} else {
		fmt.Fprintf(c.output, "[✗] %s failed on node %s: %s\n", operation, node, err.Error())
	}
}

// NodeStatus displays a node's free-list health in a formatted way
func (c *ConsoleLogger) NodeStatus(node string, healthy int, unhealthy int, inUse int) {
	if !c.interactive {
		c.Info("Node %s: healthy=%d unhealthy=%d in_use=%d", node, healthy, unhealthy, inUse)
		return
	}

	symbol, color := "✓", ColorGreen
	if unhealthy > 0 {
		symbol, color = "⚠", ColorYellow
	}

	fmt.Fprintf(c.output, "  %s%s%s %s: %d healthy, %d unhealthy, %d in use\n",
		color, symbol, ColorReset, node, healthy, unhealthy, inUse)
}

// Spinner provides a simple text-based spinner for operations
type Spinner struct {
	logger  *ConsoleLogger
	message string
	frames  []string
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a new spinner with the given message
func (c *ConsoleLogger) NewSpinner(message string) *Spinner {
	if !c.interactive {
		c.Info("%s...", message)
		return &Spinner{logger: c, message: message}
	}

	return &Spinner{
		logger:  c,
		message: message,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	if !s.logger.interactive {
		return
	}

	go func() {
		defer close(s.done)

		frame := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				fmt.Fprintf(s.logger.output, "\r%s%s%s %s",
					ColorYellow, s.frames[frame], ColorReset, s.message)
				frame = (frame + 1) % len(s.frames)
			}
		}
	}()
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	if !s.logger.interactive {
		return
	}

	close(s.stop)
	<-s.done

	// Clear the spinner line
	fmt.Fprintf(s.logger.output, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// StopWithMessage stops the spinner and displays a final message
func (s *Spinner) StopWithMessage(success bool, message string) {
	if !s.logger.interactive {
		if success {
			s.logger.Info("✓ %s", message)
		} else {
			s.logger.Error("✗ %s", message)
		}
		return
	}

	s.Stop()

	symbol := "✓"
	color := ColorGreen
	if !success {
		symbol = "✗"
		color = ColorRed
	}

	fmt.Fprintf(s.logger.output, "%s%s%s %s\n", color, symbol, ColorReset, message)
}

// Helper methods

// printLine prints a line of characters across the console width
func (c *ConsoleLogger) printLine(char string) {
	fmt.Fprintf(c.output, "%s\n", strings.Repeat(char, c.width))
}

// printIndented prints text with indentation
func (c *ConsoleLogger) printIndented(text string, indent int) {
	spaces := strings.Repeat(" ", indent)
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		fmt.Fprintf(c.output, "%s%s\n", spaces, line)
	}
}

// printBoxLine prints a box border line
func (c *ConsoleLogger) printBoxLine(left, middle, right string, width int) {
	fmt.Fprintf(c.output, "%s%s%s\n", left, strings.Repeat(middle, width-2), right)
}

// printBoxContent prints content inside a box with proper padding
func (c *ConsoleLogger) printBoxContent(content string, width int) {
	padding := width - 4 - len(content)
	if padding < 0 {
		// Content is too long, truncate it
		content = content[:width-7] + "..."
		padding = 0
	}

	fmt.Fprintf(c.output, "│ %s%s │\n", content, strings.Repeat(" ", padding))
}

// printTableRow prints a table row with proper column alignment
func (c *ConsoleLogger) printTableRow(cells []string, widths []int) {
	for i, cell := range cells {
		if i < len(widths) {
			fmt.Fprintf(c.output, "%-*s", widths[i], cell)
			if i < len(cells)-1 {
				fmt.Fprintf(c.output, " │ ")
			}
		}
	}
	fmt.Fprintf(c.output, "\n")
}

// center centers text within a given width
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}

	padding := width - len(text)
	leftPad := padding / 2
	rightPad := padding - leftPad

	return strings.Repeat(" ", leftPad) + text + strings.Repeat(" ", rightPad)
}

// Global console logger instance
var Console = NewConsoleLoggerInstance()

// Package-level console functions

// Banner prints a banner using the global console logger
func Banner(msg string) {
	Console.Banner(msg)
}

// Section prints a section header using the global console logger
func Section(title string) {
	Console.Section(title)
}

// PoolOperation starts a pool operation timer using the global console logger
func PoolOperation(operation string, node string) func() {
	return Console.PoolOperation(operation, node)
}

// PoolError logs a pool operation error using the global console logger
func PoolError(operation string, node string, err error) {
	Console.PoolError(operation, node, err)
}

// NodeStatus displays a node's free-list health using the global console logger
func NodeStatus(node string, healthy int, unhealthy int, inUse int) {
	Console.NodeStatus(node, healthy, unhealthy, inUse)
}

// ConnectionEvent logs a connection event using the global console logger
func ConnectionEvent(node string, handle uint64, status string) {
	Console.ConnectionEvent(node, handle, status)
}

// FailoverEvent logs a failover step using the global console logger
func FailoverEvent(step string, status string, message string) {
	Console.FailoverEvent(step, status, message)
}

// ErrorBox displays an error box using the global console logger
func ErrorBox(title string, message string, suggestions []string) {
	Console.ErrorBox(title, message, suggestions)
}

// SuccessBox displays a success box using the global console logger
func SuccessBox(title string, message string) {
	Console.SuccessBox(title, message)
}

// Table displays a table using the global console logger
func Table(headers []string, rows [][]string) {
	Console.Table(headers, rows)
}

// NewSpinner creates a new spinner using the global console logger
func NewSpinner(message string) *Spinner {
	return Console.NewSpinner(message)
}

// ProgressBar displays a progress bar using the global console logger
func ProgressBar(current, total, width int) {
	Console.ProgressBar(current, total, width)
}

// CommandOutput displays command output using the global console logger
func CommandOutput(output string, maxLines int) {
	Console.CommandOutput(output, maxLines)
}
