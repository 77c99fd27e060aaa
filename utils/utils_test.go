package utils

import "testing"

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{
		"int":    3,
		"float":  4.0,
		"string": " 5 ",
		"junk":   "abc",
	}
	if got := IntArg(args, "int", 9); got != 3 {
		t.Fatalf("int: got %d", got)
	}
	if got := IntArg(args, "float", 9); got != 4 {
		t.Fatalf("float: got %d", got)
	}
	if got := IntArg(args, "string", 9); got != 5 {
		t.Fatalf("string: got %d", got)
	}
	if got := IntArg(args, "junk", 9); got != 9 {
		t.Fatalf("junk: got %d", got)
	}
	if got := IntArg(args, "missing", 9); got != 9 {
		t.Fatalf("missing: got %d", got)
	}
}

func TestStrArg(t *testing.T) {
	args := map[string]interface{}{
		"s": "  padded  ",
		"n": 12,
	}
	if got := StrArg(args, "s"); got != "padded" {
		t.Fatalf("got %q", got)
	}
	if got := StrArg(args, "n"); got != "12" {
		t.Fatalf("got %q", got)
	}
	if got := StrArg(args, "missing"); got != "" {
		t.Fatalf("got %q", got)
	}
}
