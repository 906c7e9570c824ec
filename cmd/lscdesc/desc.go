package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-lsc/lsc"
	"github.com/ajroetker/go-lsc/lsc/rawsend"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode DESCRIPTOR...",
		Short: "Decode 32-bit message descriptors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				desc, err := strconv.ParseUint(arg, 0, 32)
				if err != nil {
					return fmt.Errorf("descriptor %q: %w", arg, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%#08x\n%s\n", desc, formatMessage(rawsend.Decode(uint32(desc))))
			}
			return nil
		},
	}
}

func formatMessage(m rawsend.Message) string {
	fields := [][2]string{
		{"op", m.Op.String()},
		{"addr_type", m.AddrType.String()},
		{"addr_size", m.AddrSize.String()},
		{"data_size", m.DataSize.String()},
		{"vector_size", fmt.Sprintf("%v (%d elements)", m.VectorSize, m.VectorSize.Elements())},
		{"transpose", strconv.FormatBool(m.Transpose)},
		{"vnni", strconv.FormatBool(m.VNNI)},
		{"cache_hint", m.CacheHint.String()},
		{"dst_len", strconv.Itoa(m.DstLen)},
		{"src0_len", strconv.Itoa(m.Src0Len)},
	}
	lines := lo.Map(fields, func(f [2]string, _ int) string {
		return fmt.Sprintf("  %-12s %s", f[0], f[1])
	})
	return strings.Join(lines, "\n")
}

func newEncodeCmd() *cobra.Command {
	var (
		op        string
		vs        int
		ds        string
		addrSize  int
		addrType  string
		cache     uint8
		dstLen    int
		src0Len   int
		transpose bool
		vnni      bool
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a message descriptor from its fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := rawsend.Message{
				CacheHint: lsc.CacheHint(cache),
				DstLen:    dstLen,
				Src0Len:   src0Len,
				Transpose: transpose,
				VNNI:      vnni,
			}
			var err error
			if m.Op, err = rawsend.ParseOp(op); err != nil {
				return err
			}
			var ok bool
			if m.VectorSize, ok = lsc.VectorSizeOf(vs); !ok {
				return fmt.Errorf("vector size %d is not one of 1, 2, 3, 4, 8, 16, 32, 64", vs)
			}
			if m.DataSize, err = lsc.ParseDataSize(ds); err != nil {
				return err
			}
			switch addrSize {
			case 16:
				m.AddrSize = rawsend.A16
			case 32:
				m.AddrSize = rawsend.A32
			case 64:
				m.AddrSize = rawsend.A64
			default:
				return fmt.Errorf("address size %d is not 16, 32 or 64", addrSize)
			}
			switch addrType {
			case "flat":
				m.AddrType = rawsend.Flat
			case "bti":
				m.AddrType = rawsend.BTI
			default:
				return fmt.Errorf("address type %q is not flat or bti", addrType)
			}
			desc, err := m.Encode()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%#08x\n", desc)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&op, "op", "load", "operation: load, store, load_block2d, store_block2d")
	f.IntVar(&vs, "vs", 1, "elements per lane")
	f.StringVar(&ds, "ds", "u32", "data size: u8, u16, u32, u64, u8u32, u16u32, u16u32h")
	f.IntVar(&addrSize, "addr-size", 32, "address size in bits")
	f.StringVar(&addrType, "addr-type", "flat", "address type: flat or bti")
	f.Uint8Var(&cache, "cache", 0, "cache hint code (0-7)")
	f.IntVar(&dstLen, "dst-len", 0, "destination length in registers")
	f.IntVar(&src0Len, "src0-len", 0, "source 0 length in registers")
	f.BoolVar(&transpose, "transpose", false, "transposed (single base address) message")
	f.BoolVar(&vnni, "vnni", false, "VNNI transform (2-D block load)")
	return cmd
}
