package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/taskbot/core/dispatch"
	coretelegram "github.com/m3rciful/taskbot/core/telegram"
	"github.com/m3rciful/taskbot/core/telegram/callbacks"
	"github.com/m3rciful/taskbot/core/telegram/commands"
	"github.com/m3rciful/taskbot/core/telegram/format"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"
	"github.com/m3rciful/taskbot/core/telegram/keyboard"
)

// commandSet declares the bot commands: routing, menu description, and
// visibility in the Telegram command menu.
var commandSet = map[string]commands.Command{
	"/start":    {Description: "Main menu"},
	"/register": {Description: "Register and pick a role", Hidden: true},
	"/whoami":   {Description: "Who am I"},
	"/help":     {Description: "What this bot can do"},
	"/cancel":   {Description: "Abort the current flow"},
}

// TelegramRunOptions assembles the runtime wiring consumed by the shared
// Telegram runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	cfg := a.cfg.CoreConfig()

	onLimited := func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Too many requests, slow down."})
		}
		return nil
	}

	routes := make([]coretelegram.Route, 0, len(commandSet)+2)
	var menu []tele.Command
	for name, meta := range commandSet {
		routes = append(routes, coretelegram.Route{
			Endpoint: name,
			Handler:  a.commandHandler(name),
		})
		if !meta.Hidden {
			menu = append(menu, tele.Command{
				Text:        strings.TrimPrefix(name, "/"),
				Description: meta.Description,
			})
		}
	}
	routes = append(routes,
		coretelegram.Route{Endpoint: tele.OnText, Handler: a.textHandler()},
		coretelegram.Route{Endpoint: tele.OnCallback, Handler: a.callbackHandler()},
	)

	return coretelegram.RunOptions{
		Config:       cfg,
		MenuCommands: menu,
		Middlewares:  coretelegram.DefaultMiddlewares(cfg, onLimited),
		Routes:       routes,
	}, nil
}

func profileOf(c tele.Context) (dispatch.Profile, bool) {
	sender := c.Sender()
	if sender == nil {
		return dispatch.Profile{}, false
	}
	return dispatch.Profile{
		ExternalID: sender.ID,
		Username:   sender.Username,
		FirstName:  sender.FirstName,
		LastName:   sender.LastName,
	}, true
}

func (a *App) commandHandler(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		profile, ok := profileOf(c)
		if !ok {
			return nil
		}
		ev := dispatch.Event{
			Kind:    dispatch.KindCommand,
			Command: name,
			Payload: strings.TrimSpace(c.Message().Payload),
			Profile: profile,
		}
		ctx := tghelpers.WithHandler(c, name)
		return a.reply(c, ev, a.Dispatch(ctx, ev))
	}
}

// textHandler covers free text plus commands that have no dedicated
// route, which must still reach the dispatcher as commands.
func (a *App) textHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		profile, ok := profileOf(c)
		if !ok {
			return nil
		}

		text := strings.TrimSpace(c.Text())
		ev := dispatch.Event{Kind: dispatch.KindFreeText, Payload: text, Profile: profile}
		if strings.HasPrefix(text, "/") {
			name, rest, _ := strings.Cut(text, " ")
			// strip the @botname suffix used in group chats
			if at := strings.IndexByte(name, '@'); at > 0 {
				name = name[:at]
			}
			ev = dispatch.Event{
				Kind:    dispatch.KindCommand,
				Command: name,
				Payload: strings.TrimSpace(rest),
				Profile: profile,
			}
		}

		ctx := tghelpers.BuildContext(c)
		return a.reply(c, ev, a.Dispatch(ctx, ev))
	}
}

func (a *App) callbackHandler() tele.HandlerFunc {
	return func(c tele.Context) error {
		profile, ok := profileOf(c)
		if !ok {
			return nil
		}

		action, payload := callbacks.ParseCallbackData(c.Callback())
		if action == "" {
			return c.Respond()
		}
		ev := dispatch.Event{
			Kind:    dispatch.KindCallback,
			Action:  action,
			Payload: payload,
			Profile: profile,
		}
		ctx := tghelpers.WithHandler(c, action)
		return a.reply(c, ev, a.Dispatch(ctx, ev))
	}
}

// reply renders one dispatch response onto the Telegram conversation.
// Callbacks are always acknowledged; notices become callback alerts.
func (a *App) reply(c tele.Context, ev dispatch.Event, resp *dispatch.Response) error {
	if resp == nil {
		if ev.Kind == dispatch.KindCallback {
			return c.Respond()
		}
		return nil
	}

	markup := controlsMarkup(resp.Controls)
	text := escapeText(resp.Text)

	if ev.Kind == dispatch.KindCallback {
		if resp.Notice {
			// alerts are plain text, no escaping
			return c.Respond(&tele.CallbackResponse{Text: resp.Text, ShowAlert: true})
		}
		_ = c.Respond()
		return tghelpers.EditOrSendMD(c, text, markup)
	}

	return tghelpers.SendMD(c, text, markup)
}

// escapeText neutralizes Markdown metacharacters that user-provided
// content (company names, usernames) may carry.
func escapeText(text string) string {
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV1, "")
	if err != nil {
		return text
	}
	return escaped
}

func controlsMarkup(controls [][]dispatch.Control) *tele.ReplyMarkup {
	if len(controls) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, len(controls))
	for i, row := range controls {
		btns := make([]keyboard.InlineBtn, len(row))
		for j, ctl := range row {
			btns[j] = keyboard.InlineBtn{
				Text:   ctl.Label,
				Unique: ctl.ActionID,
				Data:   ctl.Payload,
			}
		}
		rows[i] = btns
	}
	return keyboard.InlineButtonsRows(rows...)
}
