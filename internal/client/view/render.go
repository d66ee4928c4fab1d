package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/nav"
)

const (
	EmptyFilterText       = "No conversations found."
	NoActiveText          = "Select or create a conversation to start chatting."
	FirstConversationHint = "Create your first conversation with: new <name>"

	previewLen = 24
)

// SidebarData is what the sidebar needs to draw itself.
type SidebarData struct {
	Items     []models.Conversation // already filtered
	ActiveID  int64
	HasActive bool
	Query     string
	// RenamingID/RenameDraft show an inline rename in progress (RenamingID 0 = none).
	RenamingID  int64
	RenameDraft string
}

type Renderer struct {
	theme Theme
}

func NewRenderer(theme Theme) *Renderer {
	return &Renderer{theme: theme}
}

// Header shows the product name and who is signed in.
func (r *Renderer) Header(username string) string {
	title := r.theme.Title.Render("gophchat")
	if username == "" {
		return title
	}
	return title + " " + r.theme.Muted.Render("signed in as "+username)
}

// Sidebar lists conversations numbered from 1 in display order.
func (r *Renderer) Sidebar(d SidebarData) string {
	var b strings.Builder
	b.WriteString(r.theme.Title.Render("Conversations"))
	b.WriteByte('\n')
	if d.Query != "" {
		b.WriteString(r.theme.Muted.Render("search: " + d.Query))
		b.WriteByte('\n')
	}

	if len(d.Items) == 0 {
		b.WriteString(r.theme.Muted.Render(EmptyFilterText))
		return r.theme.Panel.Render(b.String())
	}

	for i, c := range d.Items {
		marker := " "
		style := r.theme.Item
		if d.HasActive && c.ID == d.ActiveID {
			marker = ">"
			style = r.theme.Active
		}
		label := c.Name
		if d.RenamingID != 0 && c.ID == d.RenamingID {
			label = fmt.Sprintf("[%s] (save/cancel)", d.RenameDraft)
		}
		line := fmt.Sprintf("%s %d. %s", marker, i+1, label)
		b.WriteString(style.Render(line))
		if m, ok := c.LastMessage(); ok && c.ID != d.RenamingID {
			b.WriteString(" " + r.theme.Muted.Render(preview(m.Text)))
		}
		if i < len(d.Items)-1 {
			b.WriteByte('\n')
		}
	}
	return r.theme.Panel.Render(b.String())
}

// Thread renders the active conversation, or the empty-state hint.
func (r *Renderer) Thread(conv models.Conversation, ok bool) string {
	if !ok {
		return r.theme.Muted.Render(NoActiveText)
	}

	var b strings.Builder
	b.WriteString(r.theme.Title.Render(conv.Name))
	for _, m := range conv.Messages {
		b.WriteByte('\n')
		b.WriteString(r.Message(m))
	}
	if len(conv.Messages) == 0 {
		b.WriteByte('\n')
		b.WriteString(r.theme.Muted.Render("No messages yet."))
	}
	return b.String()
}

// Message renders one line tagged by sender.
func (r *Renderer) Message(m models.Message) string {
	switch m.Sender {
	case models.SenderUser:
		return r.theme.User.Render("you:") + " " + m.Text
	case models.SenderBot:
		return r.theme.Bot.Render("bot:") + " " + m.Text
	default:
		return r.theme.Muted.Render(string(m.Sender)+":") + " " + m.Text
	}
}

// Chat lays the sidebar (when shown) next to the thread.
func (r *Renderer) Chat(sidebar string, showSidebar bool, thread string) string {
	if !showSidebar {
		return thread
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, "  ", thread)
}

// AuthForm renders the title of an auth view with an inline error, if any.
func (r *Renderer) AuthForm(route nav.Route, errMsg string) string {
	var title, hint string
	switch route {
	case nav.RouteSignup:
		title, hint = "Sign up", "signup <username>, or goto login"
	default:
		title, hint = "Log in", "login <username>, or goto signup"
	}

	out := r.theme.Title.Render(title) + "\n" + r.theme.Muted.Render(hint)
	if errMsg != "" {
		out += "\n" + r.theme.Error.Render(errMsg)
	}
	return out
}

// Hint formats a low-key suggestion.
func (r *Renderer) Hint(msg string) string {
	return r.theme.Muted.Render(msg)
}

// Alert formats a failure notice.
func (r *Renderer) Alert(msg string) string {
	return r.theme.Error.Render("Error: " + msg)
}

// Notice formats a success notice.
func (r *Renderer) Notice(msg string) string {
	return r.theme.Success.Render(msg)
}

// preview shortens text to one sidebar-friendly line.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen-3]) + "..."
}
