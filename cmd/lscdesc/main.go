// Copyright 2025 go-lsc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command lscdesc inspects LSC message descriptors and checks the emulation.
//
// Usage:
//
//	lscdesc decode 0x04101500 0x04001504
//	lscdesc encode --op store --vs 4 --ds u32 --addr-size 32 --src0-len 2
//	lscdesc selftest --groups 64 --lanes 16 --platform xehpc
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "lscdesc",
		Short:         "Inspect LSC message descriptors and check the emulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDecodeCmd(), newEncodeCmd(), newSelftestCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
