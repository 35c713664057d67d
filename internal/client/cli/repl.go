package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. *App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, n int) error
	Cancel(ctx context.Context) error
	Toggle(ctx context.Context, n int) error
	Delete(ctx context.Context, n int) error
	SetFilter(ctx context.Context, name string) error
	Categories(ctx context.Context) error
	ClearCompleted(ctx context.Context) error
	ClearAll(ctx context.Context) error
	Move(ctx context.Context, from, to int) error
	Export(ctx context.Context, path string) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: (l)ist, add, edit <n>, cancel, toggle <n>, delete <n>, " +
		"filter <all|active|completed|overdue>, categories, clear-completed, clear-all, " +
		"move <from> <to>, export [file], logout, help, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// Prompts issued by the commands read from the same reader. The loop exits
// on EOF, on "exit" or "quit", or when ctx ends. Command errors are printed
// and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("todo %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "register":
			report(a.Register(ctx))
			continue

		case "login":
			report(a.Login(ctx))
			continue
		}

		if !a.isLoggedIn() {
			if isKnown(cmd) {
				printlnFn("Please login or register first")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "l", "list":
			report(a.List(ctx))

		case "add":
			report(a.Add(ctx))

		case "edit", "toggle", "delete":
			n, ok := intArgs(args, 1, cmd+" <n>")
			if !ok {
				continue
			}
			switch cmd {
			case "edit":
				report(a.Edit(ctx, n[0]))
			case "toggle":
				report(a.Toggle(ctx, n[0]))
			case "delete":
				report(a.Delete(ctx, n[0]))
			}

		case "cancel":
			report(a.Cancel(ctx))

		case "filter":
			if len(args) != 1 {
				printlnFn("Usage: filter <all|active|completed|overdue>")
				continue
			}
			report(a.SetFilter(ctx, args[0]))

		case "categories":
			report(a.Categories(ctx))

		case "clear-completed":
			report(a.ClearCompleted(ctx))

		case "clear-all":
			report(a.ClearAll(ctx))

		case "move":
			n, ok := intArgs(args, 2, "move <from> <to>")
			if !ok {
				continue
			}
			report(a.Move(ctx, n[0], n[1]))

		case "export":
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			report(a.Export(ctx, path))

		case "logout":
			report(a.Logout(ctx))

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

var knownCommands = map[string]bool{
	"l": true, "list": true, "add": true, "edit": true, "cancel": true, "toggle": true,
	"delete": true, "filter": true, "categories": true, "clear-completed": true,
	"clear-all": true, "move": true, "export": true, "logout": true,
}

func isKnown(cmd string) bool { return knownCommands[cmd] }

// intArgs parses exactly count positive integer arguments and prints usage
// otherwise.
func intArgs(args []string, count int, usage string) ([]int, bool) {
	if len(args) != count {
		printlnFn("Usage:", usage)
		return nil, false
	}
	out := make([]int, count)
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			printlnFn("Usage:", usage)
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", describe(err))
	}
}
