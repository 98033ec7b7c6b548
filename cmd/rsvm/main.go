/*
 * rsvm - a managed bytecode virtual machine
 * Copyright (c) 2024-2026 by the rsvm authors. All rights reserved.
 * Licensed under the Mozilla Public License 2.0 (MPL 2.0)
 */

// Command rsvm is the CLI entry point: it parses flags, builds a
// config.Config, brings up a vm.VM, and invokes the requested
// main-class's public static void main(String[]).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanakeichen/rsvm-go/internal/config"
	"github.com/hanakeichen/rsvm-go/internal/object"
	"github.com/hanakeichen/rsvm-go/internal/trace"
	"github.com/hanakeichen/rsvm-go/internal/vm"
)

var (
	classPath  string
	rsvmHome   string
	traceLevel string
)

// run does the actual work so main can stay a thin os.Exit wrapper,
// matching the teacher's HandleCli/exit-code split.
func run(cmd *cobra.Command, args []string) int {
	mainClass := args[0]
	mainArgs := args[1:]

	cfg := config.Init(&config.Config{
		RsvmHome:  rsvmHome,
		ClassPath: config.SplitClassPath(classPath),
		MainClass: mainClass,
		MainArgs:  mainArgs,
	})
	trace.SetLevel(parseTraceLevel(traceLevel))

	machine, err := vm.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rsvm: "+err.Error())
		return 1
	}
	defer machine.Destroy()

	if err := machine.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "rsvm: "+err.Error())
		return 1
	}

	strArray := buildArgsArray(machine, mainArgs)
	if err := machine.CallStaticVoid(mainClass, "main", "([Ljava/lang/String;)V",
		[]object.Slot{{Ref: strArray}}); err != nil {
		fmt.Fprintln(os.Stderr, "Exception in thread \"main\" "+err.Error())
		return 1
	}
	return 0
}

// buildArgsArray materializes a java.lang.String[] holding mainArgs,
// interning each element through the VM's own string table so the
// array is indistinguishable from one the interpreter itself built.
func buildArgsArray(machine *vm.VM, mainArgs []string) *object.Array {
	tlab := machine.MainThread().TLAB
	strCls, err := machine.LoadClass("java/lang/String")
	if err != nil {
		// java/lang/String isn't on the classpath; fall back to an
		// empty array rather than failing startup over an unused arg.
		return object.NewReferenceArray(tlab, nil, 0)
	}
	arrCls, err := machine.LoadClass("[Ljava/lang/String;")
	if err != nil {
		return object.NewReferenceArray(tlab, nil, 0)
	}
	arr := object.NewReferenceArray(tlab, arrCls, int32(len(mainArgs)))
	for i, s := range mainArgs {
		js := machine.Strings.Intern(s)
		arr.SetRef(int32(i), object.NewJavaString(strCls, js))
	}
	return arr
}

func parseTraceLevel(s string) trace.Level {
	switch s {
	case "fine":
		return trace.FINE
	case "warning":
		return trace.WARNING
	case "severe":
		return trace.SEVERE
	default:
		return trace.INFO
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "rsvm <main-class> [args...]",
		Short: "rsvm is a managed bytecode virtual machine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(run(cmd, args))
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&classPath, "class-path", "c", "", "class search path of directories and JAR archives")
	rootCmd.Flags().StringVar(&rsvmHome, "home", "", "runtime home directory (overrides RSVM_HOME / rsvm.home)")
	rootCmd.Flags().StringVar(&traceLevel, "trace-level", "info", "logging verbosity: fine, info, warning, severe")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
