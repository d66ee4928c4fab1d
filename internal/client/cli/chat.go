package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/nav"
	"github.com/dmitrijs2005/gophchat/internal/client/services"
	"github.com/dmitrijs2005/gophchat/internal/client/view"
)

var errUsage = errors.New("invalid command usage")

// New creates a conversation and makes it active.
func (a *App) New(ctx context.Context, args []string) error {
	conv, err := a.convs.Create(ctx, strings.Join(args, " "))
	if err != nil {
		a.fail(ctx, "create conversation", err)
		return err
	}
	a.println(a.render.Notice(fmt.Sprintf("Created %q.", conv.Name)))
	a.Show()
	return nil
}

// Select activates the n-th conversation of the (filtered) sidebar.
func (a *App) Select(args []string) error {
	conv, err := a.pick(args, "select")
	if err != nil {
		return err
	}
	a.convs.Select(conv.ID)
	a.println(a.render.Thread(a.convs.Active()))
	return nil
}

// Rename edits the n-th conversation's name in an inline draft that is either
// saved or cancelled. The active pointer is left alone.
func (a *App) Rename(ctx context.Context, args []string) error {
	conv, err := a.pick(args, "rename")
	if err != nil {
		return err
	}

	a.ui.renamingID = conv.ID
	a.ui.renameDraft = conv.Name
	defer func() {
		a.ui.renamingID = 0
		a.ui.renameDraft = ""
	}()

	if len(args) > 1 {
		a.ui.renameDraft = strings.Join(args[1:], " ")
	} else {
		name, err := getSimpleText(a.reader, fmt.Sprintf("New name for %q", conv.Name), a.out)
		if err != nil {
			return err
		}
		a.ui.renameDraft = name
	}
	a.println(a.render.Sidebar(a.sidebarData()))

	choice, err := getSimpleText(a.reader, "save or cancel?", a.out)
	if err != nil {
		return err
	}
	if c := strings.ToLower(choice); c != "save" && c != "s" {
		a.println("Rename cancelled.")
		return nil
	}

	renamed, err := a.convs.Rename(ctx, conv.ID, a.ui.renameDraft)
	if err != nil {
		a.fail(ctx, "rename conversation", err)
		return err
	}
	a.println(a.render.Notice(fmt.Sprintf("Renamed to %q.", renamed.Name)))
	return nil
}

// Delete removes the n-th conversation after a y/N confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	conv, err := a.pick(args, "delete")
	if err != nil {
		return err
	}

	err = a.convs.Delete(ctx, conv.ID, func(c models.Conversation) bool {
		return GetConfirmation(a.reader, fmt.Sprintf("Delete %q?", c.Name), a.out)
	})
	if errors.Is(err, services.ErrNotConfirmed) {
		a.println("Delete cancelled.")
		return nil
	}
	if err != nil {
		a.fail(ctx, "delete conversation", err)
		return err
	}
	a.println(a.render.Notice(fmt.Sprintf("Deleted %q.", conv.Name)))
	a.Show()
	return nil
}

// Send posts text to the active conversation. A failed send keeps the text as
// the draft for retry unless the session was rejected; with nothing active
// the draft is left as it was.
func (a *App) Send(ctx context.Context, text string) error {
	var id int64
	if conv, ok := a.convs.Active(); ok {
		id = conv.ID
	}

	msgs, err := a.convs.SendMessage(ctx, id, text)
	switch {
	case errors.Is(err, services.ErrNoActiveConversation):
		a.println(a.render.Thread(models.Conversation{}, false))
		return err
	case err != nil:
		// A rejected session has already reset the view; the text must not
		// carry over to whoever logs in next.
		if !errors.Is(err, services.ErrEmptyMessage) && !errors.Is(err, client.ErrUnauthorized) &&
			a.session.Current().Authenticated() {
			a.ui.draft = text
		}
		a.fail(ctx, "send message", err)
		return err
	}

	a.ui.draft = ""
	for _, m := range msgs {
		a.println(a.render.Message(m))
	}
	return nil
}

// Retry resends the draft left by a failed send.
func (a *App) Retry(ctx context.Context) error {
	if a.ui.draft == "" {
		a.println("Nothing to retry.")
		return nil
	}
	return a.Send(ctx, a.ui.draft)
}

// Search sets the sidebar filter; no args clears it.
func (a *App) Search(args []string) {
	a.ui.query = strings.Join(args, " ")
	a.println(a.render.Sidebar(a.sidebarData()))
}

func (a *App) ToggleSidebar() {
	a.ui.sidebarOpen = !a.ui.sidebarOpen
	a.Show()
}

// Show renders the current view.
func (a *App) Show() {
	if a.route != nav.RouteChat {
		a.println(a.render.AuthForm(a.route, a.authErr))
		return
	}

	username := ""
	if u := a.session.Current().User; u != nil {
		username = u.Username
	}
	a.println(a.render.Header(username))
	a.println(a.render.Chat(
		a.render.Sidebar(a.sidebarData()),
		a.ui.sidebarOpen,
		a.render.Thread(a.convs.Active()),
	))
	if a.convs.State() == services.NoConversations {
		a.println(a.render.Hint(view.FirstConversationHint))
	}
	if a.ui.draft != "" {
		a.println(a.render.Notice("Unsent draft: " + a.ui.draft + " (type 'retry' to resend)"))
	}
}

func (a *App) visible() []models.Conversation {
	return view.Filter(a.convs.Conversations(), a.ui.query)
}

func (a *App) sidebarData() view.SidebarData {
	d := view.SidebarData{
		Items:       a.visible(),
		Query:       a.ui.query,
		RenamingID:  a.ui.renamingID,
		RenameDraft: a.ui.renameDraft,
	}
	if conv, ok := a.convs.Active(); ok {
		d.ActiveID = conv.ID
		d.HasActive = true
	}
	return d
}

// pick resolves the 1-based sidebar position in args[0].
func (a *App) pick(args []string, cmd string) (models.Conversation, error) {
	if len(args) == 0 {
		a.println(fmt.Sprintf("Usage: %s <n>", cmd))
		return models.Conversation{}, errUsage
	}
	n, err := strconv.Atoi(args[0])
	items := a.visible()
	if err != nil || n < 1 || n > len(items) {
		a.println(a.render.Alert(fmt.Sprintf("No conversation #%s.", args[0])))
		return models.Conversation{}, services.ErrConversationNotFound
	}
	return items[n-1], nil
}
