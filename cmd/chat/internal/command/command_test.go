package command_test

import (
	"testing"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/command"
)

func TestIsStockCommand_Valid(t *testing.T) {
	valid := []string{
		"/stock=AAPL.US",
		"/STOCK=aapl.us",
		"/Stock=GOOG",
		"/stock=123",
		"  /stock=TSLA  ",
		"/stock=a",
	}

	for _, input := range valid {
		if !command.IsStockCommand(input) {
			t.Errorf("Expected %q to be recognized as a stock command", input)
		}
	}
}

func TestIsStockCommand_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"/stock=",
		"stock=AAPL.US",
		"/stock=AAPL US",
		"/stock=AAPL.US extra",
		"hello /stock=AAPL.US",
		"/stocks=AAPL",
		"/stock=AAPL!",
		"just a message",
	}

	for _, input := range invalid {
		if command.IsStockCommand(input) {
			t.Errorf("Expected %q NOT to be recognized as a stock command", input)
		}
	}
}

func TestExtractStockCode_PreservesCase(t *testing.T) {
	code, ok := command.ExtractStockCode("/STOCK=aApL.Us")
	if !ok {
		t.Fatal("Expected command to be recognized")
	}
	if code != "aApL.Us" {
		t.Errorf("Expected code verbatim 'aApL.Us', got %q", code)
	}
}

func TestExtractStockCode_Invalid(t *testing.T) {
	if code, ok := command.ExtractStockCode("/stock="); ok || code != "" {
		t.Errorf("Expected no code for empty command, got %q", code)
	}
}

func TestLooksLikeStockCommand(t *testing.T) {
	if !command.LooksLikeStockCommand("/stock=") {
		t.Error("Expected '/stock=' to look like a stock command")
	}
	if !command.LooksLikeStockCommand("  /STOCK=bad code  ") {
		t.Error("Expected malformed command to still look like one")
	}
	if command.LooksLikeStockCommand("hello world") {
		t.Error("Plain chat should not look like a stock command")
	}
}
