package testutil

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"
)

// HelperMain runs the test binary as a helper process when HelperEnv is
// set, and runs the tests otherwise. Packages call it from TestMain.
//
// Modes:
//
//	lines     print each argument as a line; "!" prefixed lines go to stderr
//	exit      print the remaining arguments, then exit with the first one
//	listen    listen on the port given as the first argument until killed
//	stubborn  ignore termination requests until killed
//	env       print NAME=value for each variable named in the arguments
func HelperMain(m *testing.M) {
	mode := os.Getenv(HelperEnv)
	if mode == "" {
		os.Exit(m.Run())
	}

	args := helperArgs()
	switch mode {
	case "lines":
		printLines(args)
		os.Exit(0)
	case "exit":
		code, err := strconv.Atoi(args[0])
		if err != nil {
			code = 2
		}
		printLines(args[1:])
		os.Exit(code)
	case "env":
		for _, name := range args {
			fmt.Printf("%s=%s\n", name, os.Getenv(name))
		}
		os.Exit(0)
	case "listen":
		ln, err := net.Listen("tcp", "127.0.0.1:"+args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "listen:", err)
			os.Exit(3)
		}
		defer ln.Close()
		fmt.Println("listening")
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				conn.Close()
			}
		}()
		time.Sleep(time.Hour)
	case "stubborn":
		signal.Ignore(os.Interrupt, syscall.SIGTERM)
		fmt.Println("ignoring termination")
		time.Sleep(time.Hour)
	default:
		fmt.Fprintln(os.Stderr, "unknown helper mode", mode)
		os.Exit(4)
	}
	os.Exit(0)
}

func helperArgs() []string {
	for idx, arg := range os.Args {
		if arg == "-test.run=^$" {
			return os.Args[idx+1:]
		}
	}
	return nil
}

func printLines(lines []string) {
	for _, line := range lines {
		if len(line) > 0 && line[0] == '!' {
			fmt.Fprintln(os.Stderr, line[1:])
			continue
		}
		fmt.Println(line)
	}
}
