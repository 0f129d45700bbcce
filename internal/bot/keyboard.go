package bot

import (
	tele "gopkg.in/telebot.v4"
)

// inlineBtn describes an inline button before it is bound to a markup.
type inlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// removeKeyboard hides the reply keyboard.
func removeKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// replyButtons builds a reply keyboard from rows of labels.
func replyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// replyChoices lays a flat option list out as a one-time reply keyboard with
// up to perRow buttons per row.
func replyChoices(options []string, perRow int) *tele.ReplyMarkup {
	if perRow <= 0 {
		perRow = 1
	}
	var rows [][]string
	for i := 0; i < len(options); i += perRow {
		end := i + perRow
		if end > len(options) {
			end = len(options)
		}
		rows = append(rows, options[i:end])
	}
	markup := replyButtons(rows...)
	markup.OneTimeKeyboard = true
	return markup
}

// contactKeyboard builds the one-time keyboard requesting a phone share.
func contactKeyboard(label string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Contact(label)))
	return markup
}

// inlineButtons builds an inline keyboard, one button per row.
func inlineButtons(buttons ...inlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([][]tele.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []tele.InlineButton{*markup.Data(b.Text, b.Unique, b.Data).Inline()})
	}
	markup.InlineKeyboard = rows
	return markup
}

// inlineButtonsRow builds an inline keyboard with all buttons on one row.
func inlineButtonsRow(buttons ...inlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	row := make([]tele.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, *markup.Data(b.Text, b.Unique, b.Data).Inline())
	}
	markup.InlineKeyboard = [][]tele.InlineButton{row}
	return markup
}
