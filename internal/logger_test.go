package internal

import "testing"

func TestConfigureLogger(t *testing.T) {
	defer SetLogLevel(LevelInfo)

	if err := ConfigureLogger("debug"); err != nil {
		t.Fatalf("ConfigureLogger(debug): %v", err)
	}
	if got := getLevel(); got != LevelDebug {
		t.Fatalf("level = %v, want debug", got)
	}

	if err := ConfigureLogger(""); err != nil {
		t.Fatalf("ConfigureLogger(empty): %v", err)
	}
	if got := getLevel(); got != LevelInfo {
		t.Fatalf("level = %v, want info fallback", got)
	}

	if err := ConfigureLogger("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if got := getLevel(); got != LevelInfo {
		t.Fatalf("unknown level should fall back to info, got %v", got)
	}
}

func TestMakeLoggerArgsSortsKeys(t *testing.T) {
	args := makeLoggerArgs(Fields{
		FieldPort:  8554,
		FieldError: "boom",
		FieldBytes: 1000,
	})
	if len(args) != 3 {
		t.Fatalf("args = %d, want 3", len(args))
	}
	if args[0].Key != "bytes" || args[1].Key != "error" || args[2].Key != "port" {
		t.Fatalf("keys not sorted: %v, %v, %v", args[0].Key, args[1].Key, args[2].Key)
	}
}
