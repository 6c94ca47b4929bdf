package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func printOk(format string, a ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n", green("[ok]"), fmt.Sprintf(format, a...))
}

func printNote(format string, a ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n", cyan("[note]"), fmt.Sprintf(format, a...))
}

func printWarn(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", yellow("[warn]"), fmt.Sprintf(format, a...))
}

func printErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", red("[err]"), fmt.Sprintf(format, a...))
}

var stdin = bufio.NewReader(os.Stdin)

// confirm asks a yes/no question on the terminal, defaulting to no.
func confirm(format string, a ...interface{}) bool {
	fmt.Printf("%s [y/N]: ", fmt.Sprintf(format, a...))
	input, _ := stdin.ReadString('\n')
	input = strings.ToLower(strings.TrimRight(input, "\r\n"))
	return input == "y" || input == "yes"
}
