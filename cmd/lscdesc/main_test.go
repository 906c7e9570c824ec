package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-lsc/lsc"
	"github.com/ajroetker/go-lsc/lsc/rawsend"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunSelftest(t *testing.T) {
	tests := []struct {
		platform lsc.Platform
		groups   int
		lanes    int
		workers  int
	}{
		{lsc.XeHPC, 64, 16, 0},
		{lsc.XeHPC, 7, 32, 3},
		{lsc.XeLP, 40, 8, 8},
		{lsc.XeHPG, 1, 1, 1},
	}
	for _, tt := range tests {
		got, err := runSelftest(context.Background(), tt.platform, tt.groups, tt.lanes, tt.workers)
		if err != nil {
			t.Fatalf("runSelftest(%v, %d, %d): %v", tt.platform, tt.groups, tt.lanes, err)
		}
		if want := uint32(tt.groups * tt.lanes); got != want {
			t.Errorf("runSelftest(%v, %d, %d): got %d, want %d", tt.platform, tt.groups, tt.lanes, got, want)
		}
	}
	if _, err := runSelftest(context.Background(), lsc.XeHPC, 4, 12, 0); err == nil {
		t.Error("runSelftest with 12 lanes succeeded")
	}
}

func TestFormatMessage(t *testing.T) {
	got := formatMessage(rawsend.Decode(0x04101500))
	for _, want := range []string{"op           load", "addr_size    a32", "data_size    u32", "vector_size  N1 (1 elements)", "dst_len      1", "src0_len     2"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatMessage output lacks %q:\n%s", want, got)
		}
	}
}

func TestEncodeCommand(t *testing.T) {
	out, err := execute(t, newEncodeCmd(), "--op", "store", "--vs", "1", "--ds", "u32", "--addr-size", "32", "--src0-len", "2")
	if err != nil {
		t.Fatal(err)
	}
	if desc, err := strconv.ParseUint(strings.TrimSpace(out), 0, 32); err != nil || desc != 0x04001504 {
		t.Errorf("encode: got %q, want 0x04001504", out)
	}

	if _, err := execute(t, newEncodeCmd(), "--vs", "5"); err == nil {
		t.Error("encode --vs 5 succeeded")
	}
	if _, err := execute(t, newEncodeCmd(), "--addr-type", "bss"); err == nil {
		t.Error("encode --addr-type bss succeeded")
	}
}

func TestDecodeCommand(t *testing.T) {
	out, err := execute(t, newDecodeCmd(), "0x04001504")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "4001504\n") || !strings.Contains(out, "op           store") {
		t.Errorf("decode output:\n%s", out)
	}
	if _, err := execute(t, newDecodeCmd(), "0x1_0000_0000"); err == nil {
		t.Error("decode of a 33-bit value succeeded")
	}
}

func TestSelftestCommand(t *testing.T) {
	out, err := execute(t, newSelftestCmd(), "--groups", "8", "--lanes", "16", "--platform", "pvc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "counter = 128 (want 128)") {
		t.Errorf("selftest output: %q", out)
	}
}
