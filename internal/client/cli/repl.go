package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/nav"
)

// printlnFn and printFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Route() nav.Route

	Login(ctx context.Context, args []string) error
	Signup(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Goto(args []string) error
	Ping(ctx context.Context) error

	New(ctx context.Context, args []string) error
	Select(args []string) error
	Rename(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Send(ctx context.Context, text string) error
	Retry(ctx context.Context) error
	Search(args []string)
	ToggleSidebar()
	Show()
}

const (
	authHelp = "Available commands: login [username], signup [username], goto <route>, ping, show, help, exit"
	chatHelp = "Available commands: new <name>, select <n>, rename <n> [name], delete <n>, send <text>, " +
		"retry, search [query], sidebar, show, ping, logout, help, exit. Any other line is sent as a message; " +
		"a line whose first word is a command runs that command, so use 'send <text>' to send it instead."
)

// runREPL reads commands line by line and dispatches them to a.
//
// On the login and signup views only auth commands are accepted. On the chat
// view any line that is not a command is sent to the active conversation.
// The first word decides: "new ideas" creates a conversation, while
// "send new ideas" posts the text.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures.
func runREPL(ctx context.Context, a execIface, promptFn func() string, in *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(promptFn())
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			printlnFn()
			return
		}
		line = strings.TrimSpace(line)
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		chat := a.Route() == nav.RouteChat

		switch cmd {
		case "help":
			if chat {
				printlnFn(chatHelp)
			} else {
				printlnFn(authHelp)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "login":
			_ = a.Login(ctx, args)
			continue
		case "signup":
			_ = a.Signup(ctx, args)
			continue
		case "goto":
			_ = a.Goto(args)
			continue
		case "ping":
			_ = a.Ping(ctx)
			continue
		case "show":
			a.Show()
			continue
		}

		if !chat {
			printlnFn("Unknown command:", cmd)
			continue
		}

		switch cmd {
		case "new":
			_ = a.New(ctx, args)
		case "select":
			_ = a.Select(args)
		case "rename":
			_ = a.Rename(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "send":
			_ = a.Send(ctx, strings.TrimSpace(strings.TrimPrefix(line, "send")))
		case "retry":
			_ = a.Retry(ctx)
		case "search":
			a.Search(args)
		case "sidebar":
			a.ToggleSidebar()
		case "logout":
			_ = a.Logout(ctx)
		default:
			_ = a.Send(ctx, line)
		}
	}
}
