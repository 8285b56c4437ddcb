package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, mode string)
	Find(ctx context.Context, query string)
	Like(ctx context.Context, id string)
	Comment(ctx context.Context, id, text string)
	Post(ctx context.Context) error
	SOS(ctx context.Context, category string)
	Alerts(ctx context.Context)
	Map(ctx context.Context)
	SetLocation(ctx context.Context, lat, lon string)
}

// runREPL starts a simple read–eval–print loop for the Centinela CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, context cancellation, or
// when the user types "exit" or "quit".
//
// Commands
//
//	list [top]          — show the feed, newest first ("top": most liked)
//	find <text>         — filter the feed by title
//	like <post>         — toggle your like on a post
//	comment <post> <..> — comment on a post
//	post                — publish a new report (interactive)
//	sos <category>      — send an emergency alert (police|ambulance|fire)
//	alerts              — show the live alert list
//	map                 — print the current map payload
//	setloc <lat> <lon>  — set the device position by hand
//	help                — show available commands
//	exit | quit         — leave the program
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("centinela %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: list [top], find <text>, like <post>, comment <post> <text>, post, sos <category>, alerts, map, setloc <lat> <lon>, exit")

		case "list", "l":
			mode := ""
			if len(args) > 0 {
				mode = args[0]
			}
			a.List(ctx, mode)

		case "find":
			a.Find(ctx, strings.Join(args, " "))

		case "like":
			if len(args) != 1 {
				printlnFn("usage: like <post>")
				continue
			}
			a.Like(ctx, args[0])

		case "comment":
			if len(args) < 2 {
				printlnFn("usage: comment <post> <text>")
				continue
			}
			a.Comment(ctx, args[0], strings.Join(args[1:], " "))

		case "post":
			_ = a.Post(ctx)

		case "sos":
			if len(args) != 1 {
				printlnFn("usage: sos <police|ambulance|fire>")
				continue
			}
			a.SOS(ctx, args[0])

		case "alerts":
			a.Alerts(ctx)

		case "map":
			a.Map(ctx)

		case "setloc":
			if len(args) != 2 {
				printlnFn("usage: setloc <lat> <lon>")
				continue
			}
			a.SetLocation(ctx, args[0], args[1])

		case "exit", "quit":
			return

		default:
			printlnFn(fmt.Sprintf("Unknown command: %s", cmd))
		}
	}
}
